package convert

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"lorekeeper/internal/lore"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
	}{
		{"novel", `{"lorebookVersion":5,"entries":[]}`, FormatNovel},
		{"agnai", `{"kind":"memory","entries":[]}`, FormatAgnai},
		{"risu", `{"type":"risu","data":[]}`, FormatRisu},
		{"native", `{"entries":{"0":{"uid":0}}}`, FormatNative},
		{"character book", `{"entries":[{"keys":["a"]}]}`, FormatCharacterBook},
		{"character card", `{"spec":"chara_card_v2","data":{"character_book":{"entries":[]}}}`, FormatCharacterBook},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect([]byte(tt.data))
			if err != nil {
				t.Fatalf("Detect: %v", err)
			}
			if got != tt.want {
				t.Errorf("Detect = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectErrors(t *testing.T) {
	if _, err := Detect([]byte(`{"entries":`)); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("truncated JSON error = %v", err)
	}
	if _, err := Detect([]byte(`{"title":"x"}`)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("unknown shape error = %v", err)
	}
	if _, err := Detect([]byte(`[1,2]`)); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("array error = %v", err)
	}
	if _, err := Parse(FormatRisu, []byte(`nope`)); !errors.Is(err, ErrInvalidJSON) {
		t.Errorf("Parse error = %v", err)
	}
}

func TestFromNovel(t *testing.T) {
	data := `{"lorebookVersion":5,"entries":[
		{"keys":["castle"],"displayName":"Castle","text":"A keep.","enabled":true,"contextConfig":{"budgetPriority":400}},
		{"keys":["moat"],"displayName":"  ","text":"Water.","enabled":false}
	]}`
	c, format, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if format != FormatNovel {
		t.Fatalf("format = %s", format)
	}

	castle := lore.NewEntry(0)
	castle.Key = []string{"castle"}
	castle.Comment = "Castle"
	castle.Content = "A keep."
	castle.Order = 400
	castle.AddMemo = true

	moat := lore.NewEntry(1)
	moat.Key = []string{"moat"}
	moat.Comment = "  "
	moat.Content = "Water."
	moat.Order = 0
	moat.Disable = true

	if diff := cmp.Diff([]*lore.Entry{castle, moat}, c.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFromAgnai(t *testing.T) {
	data := `{"kind":"memory","name":"Book","entries":[
		{"name":"Dragon","keywords":["dragon","wyrm"],"entry":"Breathes fire.","weight":7,"enabled":true},
		{"name":"","keywords":"not a list","entry":"Odd.","weight":"heavy"}
	]}`
	c, _, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	dragon := lore.NewEntry(0)
	dragon.Key = []string{"dragon", "wyrm"}
	dragon.Comment = "Dragon"
	dragon.Content = "Breathes fire."
	dragon.Order = 7
	dragon.AddMemo = true

	odd := lore.NewEntry(1)
	odd.Key = []string{"not a list"}
	odd.Content = "Odd."
	odd.Order = 0
	odd.Disable = true

	if diff := cmp.Diff([]*lore.Entry{dragon, odd}, c.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFromRisu(t *testing.T) {
	data := `{"type":"risu","data":[
		{"key":"sword, blade ,","secondkey":"magic","comment":"Sword","content":"Sharp.","alwaysActive":false,"selective":true,"insertorder":50,"activationPercent":30},
		{"key":"sun","secondkey":"","content":"Bright.","alwaysActive":true,"insertorder":1}
	]}`
	c, _, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	sword := lore.NewEntry(0)
	sword.Key = []string{"sword", "blade"}
	sword.KeySecondary = []string{"magic"}
	sword.Comment = "Sword"
	sword.Content = "Sharp."
	sword.Selective = true
	sword.Order = 50
	sword.AddMemo = true
	sword.Probability = lore.IntPtr(30)
	sword.UseProbability = true

	sun := lore.NewEntry(1)
	sun.Key = []string{"sun"}
	sun.Content = "Bright."
	sun.Constant = true
	sun.Order = 1
	sun.AddMemo = true

	if diff := cmp.Diff([]*lore.Entry{sword, sun}, c.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCharacterBook(t *testing.T) {
	data := `{"name":"Seraphina's Lorebook","entries":[
		{"id":7,"keys":["glade"],"secondary_keys":["forest"],"comment":"Glade","content":"A clearing.","constant":false,"selective":true,"insertion_order":90,"enabled":true,"position":"before_char","extensions":{"exclude_recursion":true,"display_index":3,"probability":60,"useProbability":true}},
		{"keys":["river"],"content":"Cold.","insertion_order":10,"enabled":false,"position":"after_char"},
		{"keys":["note"],"content":"Top.","enabled":true,"extensions":{"position":2}}
	]}`
	c, _, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	glade := lore.NewEntry(7)
	glade.Key = []string{"glade"}
	glade.KeySecondary = []string{"forest"}
	glade.Comment = "Glade"
	glade.Content = "A clearing."
	glade.Selective = true
	glade.Order = 90
	glade.ExcludeRecursion = true
	glade.AddMemo = true
	glade.DisplayIndex = 3
	glade.Probability = lore.IntPtr(60)
	glade.UseProbability = true

	river := lore.NewEntry(1)
	river.Key = []string{"river"}
	river.Content = "Cold."
	river.Order = 10
	river.Position = lore.PositionAfter
	river.Disable = true

	note := lore.NewEntry(2)
	note.Key = []string{"note"}
	note.Content = "Top."
	note.Order = 0
	note.Position = lore.PositionNoteTop

	if diff := cmp.Diff([]*lore.Entry{river, note, glade}, c.Entries()); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}

	original := gjson.ParseBytes(c.OriginalData)
	if got := original.Get("name").String(); got != "Seraphina's Lorebook" {
		t.Errorf("original name = %q", got)
	}
	if got := original.Get("entries.1.id").Int(); got != 1 {
		t.Errorf("missing id not numbered: entries.1.id = %d", got)
	}
	if got := original.Get("entries.0.id").Int(); got != 7 {
		t.Errorf("existing id changed: %d", got)
	}
}

func TestCharacterCardUnwrapped(t *testing.T) {
	data := `{"spec":"chara_card_v2","data":{"name":"Seraphina","character_book":{"name":"Glade","entries":[{"keys":["glade"],"content":"x","enabled":true}]}}}`
	c, _, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("entries = %d, want 1", c.Len())
	}
	if got := gjson.GetBytes(c.OriginalData, "name").String(); got != "Glade" {
		t.Errorf("original data is not the book: name = %q", got)
	}
}

func TestCharacterBookRoundTrip(t *testing.T) {
	c := lore.NewCollection()
	for _, e := range []*lore.Entry{
		{UID: 0, Key: []string{"sword"}, KeySecondary: []string{}, Comment: "Sword", Content: "Steel.", Order: 100, Position: lore.PositionBefore, AddMemo: true, DisplayIndex: 0},
		{UID: 4, Key: []string{"magic"}, KeySecondary: []string{"wand"}, Content: "Arcane.", Selective: true, Order: 50, Position: lore.PositionNoteBottom, ExcludeRecursion: true, Probability: lore.IntPtr(25), UseProbability: true, DisplayIndex: 2},
		{UID: 9, Key: []string{}, KeySecondary: []string{}, Content: "Always.", Constant: true, Disable: true, Position: lore.PositionAfter, DisplayIndex: 1},
	} {
		c.Put(e)
	}

	data, err := ToCharacterBook("Armory", c)
	if err != nil {
		t.Fatalf("ToCharacterBook: %v", err)
	}
	if got := gjson.GetBytes(data, "name").String(); got != "Armory" {
		t.Errorf("book name = %q", got)
	}

	back, err := Parse(FormatCharacterBook, data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(c.Entries(), back.Entries()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportKeepsOriginalEdits(t *testing.T) {
	data := `{"name":"Book","entries":[{"id":3,"keys":["a"],"content":"x","enabled":true,"extra":"keep me"}]}`
	c, _, err := Import([]byte(data))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if err := c.SetOriginalValue(3, "extensions.probability", 40); err != nil {
		t.Fatalf("SetOriginalValue: %v", err)
	}

	out, err := ToCharacterBook("ignored", c)
	if err != nil {
		t.Fatalf("ToCharacterBook: %v", err)
	}
	doc := gjson.ParseBytes(out)
	if got := doc.Get("entries.0.extensions.probability").Int(); got != 40 {
		t.Errorf("probability = %d, want 40", got)
	}
	if got := doc.Get("entries.0.extra").String(); got != "keep me" {
		t.Errorf("unrelated field = %q", got)
	}
	if got := doc.Get("name").String(); got != "Book" {
		t.Errorf("name = %q", got)
	}
}
