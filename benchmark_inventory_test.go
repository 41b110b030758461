package yang_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/jacoelho/yang"
)

const inventorySchema = `module inventory {
  namespace "urn:inventory";
  prefix inv;
  container inventory {
    list item {
      key "sku";
      leaf sku { type string; }
      leaf qty { type uint32 { range "0..100000"; } mandatory true; }
      leaf state { type enumeration { enum active; enum retired; } }
      leaf-list tag { type string; max-elements 8; }
    }
    leaf owner { type leafref { path "/inventory/item/sku"; } }
  }
}`

var (
	inventoryDocOnce sync.Once
	inventoryDoc     string
)

func loadInventoryDoc() string {
	inventoryDocOnce.Do(func() {
		var b strings.Builder
		b.WriteString(`<inventory xmlns="urn:inventory">`)
		for i := range 500 {
			fmt.Fprintf(&b, "<item><sku>sku-%d</sku><qty>%d</qty><state>active</state><tag>a</tag><tag>b</tag></item>", i, i)
		}
		b.WriteString("<owner>sku-42</owner></inventory>")
		inventoryDoc = b.String()
	})
	return inventoryDoc
}

func BenchmarkInventoryValidate(b *testing.B) {
	engine, err := yang.Compile(inventorySchema, yang.NewOptions())
	if err != nil {
		b.Fatalf("Compile() error = %v", err)
	}
	doc := loadInventoryDoc()

	b.ReportAllocs()
	b.SetBytes(int64(len(doc)))

	for b.Loop() {
		if res := engine.Validate(doc); !res.Valid() {
			b.Fatal(res.String())
		}
	}
}

func BenchmarkInventoryCompile(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		if _, err := yang.Compile(inventorySchema, yang.NewOptions()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkInventoryCompileCached(b *testing.B) {
	opts := yang.NewOptions().WithCache(true)

	b.ReportAllocs()

	for b.Loop() {
		if _, err := yang.Compile(inventorySchema, opts); err != nil {
			b.Fatal(err)
		}
	}
}
