package convert

import (
	"strings"

	"github.com/tidwall/gjson"

	"lorekeeper/internal/lore"
)

type NovelLorebook struct {
	Entries []NovelEntry
}

type NovelEntry struct {
	Keys           []string
	DisplayName    string
	Text           string
	Enabled        bool
	BudgetPriority *int
}

type AgnaiMemoryBook struct {
	Name    string
	Entries []AgnaiEntry
}

type AgnaiEntry struct {
	Name     string
	Keywords []string
	Entry    string
	Weight   int
	Enabled  bool
}

type RisuLorebook struct {
	Data []RisuEntry
}

type RisuEntry struct {
	Key               string
	SecondKey         string
	Comment           string
	Content           string
	AlwaysActive      bool
	Selective         bool
	InsertOrder       int
	ActivationPercent *int
}

func decodeNovel(root gjson.Result) NovelLorebook {
	var book NovelLorebook
	for _, item := range root.Get("entries").Array() {
		book.Entries = append(book.Entries, NovelEntry{
			Keys:           lore.StringList(item.Get("keys")),
			DisplayName:    item.Get("displayName").String(),
			Text:           item.Get("text").String(),
			Enabled:        item.Get("enabled").Bool(),
			BudgetPriority: optInt(item.Get("contextConfig.budgetPriority")),
		})
	}
	return book
}

func decodeAgnai(root gjson.Result) AgnaiMemoryBook {
	book := AgnaiMemoryBook{Name: root.Get("name").String()}
	for _, item := range root.Get("entries").Array() {
		book.Entries = append(book.Entries, AgnaiEntry{
			Name:     item.Get("name").String(),
			Keywords: lore.StringList(item.Get("keywords")),
			Entry:    item.Get("entry").String(),
			Weight:   int(item.Get("weight").Int()),
			Enabled:  item.Get("enabled").Bool(),
		})
	}
	return book
}

func decodeRisu(root gjson.Result) RisuLorebook {
	var book RisuLorebook
	for _, item := range root.Get("data").Array() {
		book.Data = append(book.Data, RisuEntry{
			Key:               item.Get("key").String(),
			SecondKey:         item.Get("secondkey").String(),
			Comment:           item.Get("comment").String(),
			Content:           item.Get("content").String(),
			AlwaysActive:      item.Get("alwaysActive").Bool(),
			Selective:         item.Get("selective").Bool(),
			InsertOrder:       int(item.Get("insertorder").Int()),
			ActivationPercent: optInt(item.Get("activationPercent")),
		})
	}
	return book
}

func FromNovel(book NovelLorebook) *lore.Collection {
	c := lore.NewCollection()
	for i, in := range book.Entries {
		e := lore.NewEntry(i)
		e.Key = nonNil(in.Keys)
		e.Comment = in.DisplayName
		e.Content = in.Text
		e.Order = 0
		if in.BudgetPriority != nil {
			e.Order = *in.BudgetPriority
		}
		e.Disable = !in.Enabled
		e.AddMemo = strings.TrimSpace(in.DisplayName) != ""
		c.Put(e)
	}
	return c
}

func FromAgnai(book AgnaiMemoryBook) *lore.Collection {
	c := lore.NewCollection()
	for i, in := range book.Entries {
		e := lore.NewEntry(i)
		e.Key = nonNil(in.Keywords)
		e.Comment = in.Name
		e.Content = in.Entry
		e.Order = in.Weight
		e.Disable = !in.Enabled
		e.AddMemo = in.Name != ""
		c.Put(e)
	}
	return c
}

func FromRisu(book RisuLorebook) *lore.Collection {
	c := lore.NewCollection()
	for i, in := range book.Data {
		e := lore.NewEntry(i)
		e.Key = splitKeys(in.Key)
		e.KeySecondary = splitKeys(in.SecondKey)
		e.Comment = in.Comment
		e.Content = in.Content
		e.Constant = in.AlwaysActive
		e.Selective = in.Selective
		e.Order = in.InsertOrder
		e.Position = lore.PositionBefore
		e.AddMemo = true
		e.Probability = in.ActivationPercent
		e.UseProbability = in.ActivationPercent != nil && *in.ActivationPercent != 0
		c.Put(e)
	}
	return c
}

// splitKeys splits a comma-separated key list, dropping blanks.
func splitKeys(value string) []string {
	keys := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			keys = append(keys, part)
		}
	}
	return keys
}

func nonNil(keys []string) []string {
	if keys == nil {
		return []string{}
	}
	return keys
}
