package export

import (
	"database/sql/driver"
	"testing"

	"bugmaschine/booru-mux/model"
)

func TestPostArgsFlat(t *testing.T) {
	p := model.Post{
		ID:          7,
		Score:       -2,
		Rating:      model.Questionable,
		Tags:        model.FlatTags("fox", "blue"),
		Hash:        "abc",
		ResourceURL: "https://img.example.org/7.png",
	}
	args, err := postArgs("rule34", p)
	if err != nil {
		t.Fatal(err)
	}
	if len(args) != 9 {
		t.Fatalf("got %d args, want 9", len(args))
	}
	if args[0] != "rule34" || args[1] != int64(7) || args[2] != int64(-2) || args[3] != "questionable" {
		t.Errorf("args = %v", args[:4])
	}
	if args[5] != nil {
		t.Errorf("flat post has categories %v", args[5])
	}

	v, err := args[4].(driver.Valuer).Value()
	if err != nil {
		t.Fatal(err)
	}
	if v != `{"blue","fox"}` {
		t.Errorf("tags = %v", v)
	}
}

func TestPostArgsCategorized(t *testing.T) {
	p := model.Post{
		ID:     1,
		Rating: model.Safe,
		Tags: model.CategorizedTags(map[string]model.TagSet{
			"artist":  model.NewTagSet("someone"),
			"general": model.NewTagSet("fox", "blue"),
		}),
	}
	args, err := postArgs("e621", p)
	if err != nil {
		t.Fatal(err)
	}
	if args[5] != `{"artist":["someone"],"general":["blue","fox"]}` {
		t.Errorf("categories = %v", args[5])
	}
	v, _ := args[4].(driver.Valuer).Value()
	if v != `{"blue","fox","someone"}` {
		t.Errorf("tags = %v", v)
	}
}

func TestPostArgsWithoutTags(t *testing.T) {
	args, err := postArgs("e621", model.Post{ID: 2})
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := args[4].(driver.Valuer).Value(); v != "{}" {
		t.Errorf("tags = %v, want empty array", v)
	}
}

func TestTagArgs(t *testing.T) {
	args := tagArgs("e621", model.Tag{ID: 3, Name: "fox", Count: 12})
	if args[1] != int64(3) || args[2] != "fox" || args[3] != int64(12) {
		t.Errorf("args = %v", args)
	}
}

func TestDSN(t *testing.T) {
	c := Config{Host: "db", Port: 5432, Name: "booru", User: "u", Password: "p"}
	want := "host=db port=5432 user=u password=p dbname=booru sslmode=disable"
	if got := c.dsn(); got != want {
		t.Errorf("dsn = %q, want %q", got, want)
	}
}
