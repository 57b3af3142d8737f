package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/surplus-storefront/internal/domain/product"
)

func intPtr(v int) *int { return &v }

func expectedCatalog() []product.Product {
	return []product.Product{
		{
			ID:          "665f1c2a9b1e",
			Name:        "Linen Overshirt",
			Description: "Relaxed fit overshirt in washed linen.",
			Category:    "Shirts",
			Price:       decimal.NewFromInt(2499),
			Variants: []product.Variant{
				{Color: "Sand", ColorCode: "#d8c3a5", Images: []string{"/img/overshirt-sand-1.jpg", "/img/overshirt-sand-2.jpg"}},
				{Color: "Olive", ColorCode: "#556b2f", Images: []string{"/img/overshirt-olive-1.jpg"}},
			},
			Sizes: []product.Size{{Name: "S"}, {Name: "M"}, {Name: "L"}},
		},
		{
			ID:       "tee-01",
			Name:     "Heavy Tee",
			Category: "T-Shirts",
			Price:    decimal.RequireFromString("899.50"),
			Variants: []product.Variant{
				{Color: "Black", ColorCode: "#000000", Images: []string{"https://cdn.example.com/tee-black.jpg"}},
			},
			Sizes: []product.Size{{Name: "M", Stock: intPtr(0)}, {Name: "L", Stock: intPtr(4)}},
		},
	}
}

func TestLoadFile(t *testing.T) {
	got, err := LoadFile(filepath.Join("testdata", "catalog.json"))
	require.NoError(t, err)

	if diff := cmp.Diff(expectedCatalog(), got); diff != "" {
		t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_Gzip(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "catalog.json"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write(data)
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	got, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	for _, data := range []string{
		`"x"`,
		`{"items": []}`,
		`[{"name": "no id"}]`,
		`[{"id": "p", "price": "free"}]`,
	} {
		_, err := Decode([]byte(data))
		assert.Error(t, err, data)
	}
}

func TestEncodeProduct_RoundTrip(t *testing.T) {
	var e jx.Encoder
	e.Arr(func(e *jx.Encoder) {
		for _, p := range expectedCatalog() {
			EncodeProduct(e, p)
		}
	})

	got, err := Decode(e.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(expectedCatalog(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
