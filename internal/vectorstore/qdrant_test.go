package vectorstore

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

// Tests here cover the conversion helpers without a running Qdrant server.

func TestQdrantEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant.internal:9000",
			wantHost: "qdrant.internal",
			wantPort: 9001,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := qdrantEndpoint(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Error("qdrantEndpoint() expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("qdrantEndpoint() error = %v", err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestChunkFromPayload(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"chunk_id":    "doc-1:2",
		"document_id": "doc-1",
		"source":      "notes.txt",
		"chunk_index": 2,
		"text":        "héllo",
		"start":       1600,
		"end":         1605,
	})

	c := chunkFromPayload(convertPayloadToMap(payload))

	if c.ID != "doc-1:2" || c.DocumentID != "doc-1" || c.Source != "notes.txt" {
		t.Errorf("identity fields = %+v", c)
	}
	if c.Index != 2 || c.Start != 1600 || c.End != 1605 {
		t.Errorf("offsets = %d %d %d", c.Index, c.Start, c.End)
	}
	if c.Text != "héllo" || c.Bytes != len("héllo") {
		t.Errorf("text = %q (%d bytes)", c.Text, c.Bytes)
	}
}

func TestConvertValue(t *testing.T) {
	tests := []struct {
		name  string
		value *qdrant.Value
		want  any
	}{
		{name: "bool", value: qdrant.NewValueBool(true), want: true},
		{name: "int", value: qdrant.NewValueInt(42), want: int64(42)},
		{name: "double", value: qdrant.NewValueDouble(1.5), want: 1.5},
		{name: "string", value: qdrant.NewValueString("x"), want: "x"},
		{name: "null", value: qdrant.NewValueNull(), want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := convertValue(tt.value); got != tt.want {
				t.Errorf("convertValue() = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestParseGeneration(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   uint64
		wantOK bool
	}{
		{"data collection", "docs_g3", 3, true},
		{"meta collection", "docs_meta_g12", 12, true},
		{"alias name", "docs", 0, false},
		{"meta alias name", "docs_meta", 0, false},
		{"other collection", "notes_g1", 0, false},
		{"missing number", "docs_g", 0, false},
		{"not a number", "docs_gx", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseGeneration("docs", tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("parseGeneration(%q) = %d, %v, want %d, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNextGeneration(t *testing.T) {
	got := nextGeneration("docs", []string{"docs_g2", "docs_meta_g2", "docs_g5", "other_g9", "docs"})
	want := generation{data: "docs_g6", meta: "docs_meta_g6"}
	if got != want {
		t.Errorf("nextGeneration() = %+v, want %+v", got, want)
	}

	if got := nextGeneration("docs", nil); got != (generation{data: "docs_g1", meta: "docs_meta_g1"}) {
		t.Errorf("nextGeneration(nil) = %+v", got)
	}
}

// describeActions renders alias operations as "create alias->collection" or "delete alias".
func describeActions(actions []*qdrant.AliasOperations) []string {
	out := []string{}
	for _, a := range actions {
		if c := a.GetCreateAlias(); c != nil {
			out = append(out, "create "+c.GetAliasName()+"->"+c.GetCollectionName())
		}
		if d := a.GetDeleteAlias(); d != nil {
			out = append(out, "delete "+d.GetAliasName())
		}
	}
	return out
}

func TestSwapActions(t *testing.T) {
	tests := []struct {
		name    string
		current generation
		next    generation
		want    []string
	}{
		{
			name:    "first build",
			current: generation{},
			next:    generation{data: "docs_g1", meta: "docs_meta_g1"},
			want:    []string{"create docs->docs_g1", "create docs_meta->docs_meta_g1"},
		},
		{
			name:    "rebuild switches both aliases together",
			current: generation{data: "docs_g1", meta: "docs_meta_g1"},
			next:    generation{data: "docs_g2", meta: "docs_meta_g2"},
			want:    []string{"delete docs", "delete docs_meta", "create docs->docs_g2", "create docs_meta->docs_meta_g2"},
		},
		{
			name:    "empty corpus keeps only the fingerprint",
			current: generation{data: "docs_g1", meta: "docs_meta_g1"},
			next:    generation{meta: "docs_meta_g2"},
			want:    []string{"delete docs", "delete docs_meta", "create docs_meta->docs_meta_g2"},
		},
		{
			name:    "reset drops both aliases",
			current: generation{data: "docs_g2", meta: "docs_meta_g2"},
			next:    generation{},
			want:    []string{"delete docs", "delete docs_meta"},
		},
		{
			name:    "reset of an empty index does nothing",
			current: generation{},
			next:    generation{},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := describeActions(swapActions("docs", tt.current, tt.next))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("swapActions() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStaleCollections(t *testing.T) {
	existing := []string{"docs_g1", "docs_meta_g1", "docs_g2", "docs_meta_g2", "docs_g3", "unrelated"}

	got := staleCollections("docs", existing, generation{data: "docs_g2", meta: "docs_meta_g2"})
	want := []string{"docs_g1", "docs_meta_g1", "docs_g3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("staleCollections() = %v, want %v", got, want)
	}

	// After a reset nothing is kept.
	got = staleCollections("docs", existing, generation{})
	want = []string{"docs_g1", "docs_meta_g1", "docs_g2", "docs_meta_g2", "docs_g3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("staleCollections() after reset = %v, want %v", got, want)
	}
}
