package yang_test

import (
	"sync"
	"testing"

	"github.com/jacoelho/yang"
)

func TestEngineValidateConcurrent(t *testing.T) {
	schemaText := `module counters {
  namespace "urn:test";
  prefix t;
  container root {
    list item {
      key "id";
      leaf id { type int32; }
      leaf value { type int64 { range "0..max"; } }
    }
  }
}`

	validDoc := `<root xmlns="urn:test">
  <item><id>1</id><value>10</value></item>
  <item><id>2</id><value>20</value></item>
  <item><id>3</id></item>
</root>`
	invalidDoc := `<root xmlns="urn:test">
  <item><id>1</id><value>-1</value></item>
  <item><id>1</id></item>
</root>`

	engine, err := yang.Compile(schemaText, yang.NewOptions())
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	const goroutines = 8
	const iterations = 25

	errCh := make(chan string, goroutines*iterations)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				if res := engine.Validate(validDoc); !res.Valid() {
					errCh <- "valid document rejected: " + res.String()
					return
				}
				if res := engine.Validate(invalidDoc); res.Outcome != yang.Failure || len(res.Diagnostics) != 2 {
					errCh <- "invalid document: " + res.String()
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errCh)

	for msg := range errCh {
		t.Fatalf("concurrent Validate: %s", msg)
	}
}
