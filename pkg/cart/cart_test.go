package cart

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/catalog"
)

var (
	burger = catalog.FoodItem{ID: "a", Name: "Beef Burger", Price: 450, Category: catalog.CategoryBurger, Image: "beef_burger.jpg"}
	roll   = catalog.FoodItem{ID: "b", Name: "Chicken Roll Paratha", Price: 300, Category: catalog.CategoryRoll}
	water  = catalog.FoodItem{ID: "c", Name: "Mineral Water", Price: 80, Category: catalog.CategoryDrink}
)

func TestAddIncrementsExistingLine(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Add(roll)
	c.Add(burger)

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].ID)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "b", lines[1].ID)
	assert.Equal(t, 1, lines[1].Quantity)
	assert.Equal(t, 3, c.TotalItems())
	assert.Equal(t, int64(450*2+300), c.TotalPrice())
}

func TestRemoveAndUnknownIDs(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Remove("missing")
	c.SetQuantity("missing", 4)
	assert.Equal(t, 1, c.Len())

	c.Remove("a")
	assert.True(t, c.Empty())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Add(roll)

	c.SetQuantity("a", 5)
	assert.Equal(t, 5, c.Lines()[0].Quantity)

	c.SetQuantity("a", 0)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "b", c.Lines()[0].ID)

	c.SetQuantity("b", -3)
	assert.True(t, c.Empty())
}

func TestSnapshotIgnoresLaterCatalogChanges(t *testing.T) {
	c := New()
	item := burger
	c.Add(item)
	item.Price = 999
	c.Add(item)

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, int64(450), lines[0].Price)
	assert.Equal(t, int64(900), c.TotalPrice())
}

func TestAddLineMergesSnapshots(t *testing.T) {
	c := New()
	c.Add(burger)
	c.AddLine(Line{ID: burger.ID, Name: burger.Name, Price: 999, Quantity: 3})
	c.AddLine(Line{ID: "x", Name: "Old Special", Price: 250, Quantity: 2})
	c.AddLine(Line{ID: "y", Name: "Nothing", Price: 10, Quantity: 0})

	lines := c.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, 4, lines[0].Quantity)
	assert.Equal(t, int64(450), lines[0].Price)
	assert.Equal(t, "Old Special", lines[1].Name)
	assert.Equal(t, int64(450*4+250*2), c.TotalPrice())
}

func TestLinesReturnsCopy(t *testing.T) {
	c := New()
	c.Add(burger)
	lines := c.Lines()
	lines[0].Quantity = 40
	assert.Equal(t, 1, c.Lines()[0].Quantity)
}

func TestClear(t *testing.T) {
	c := New()
	c.Add(burger)
	c.Add(water)
	c.Clear()
	assert.True(t, c.Empty())
	assert.Equal(t, 0, c.TotalItems())
	assert.Equal(t, int64(0), c.TotalPrice())
}

func TestRandomOperationsKeepInvariants(t *testing.T) {
	items := []catalog.FoodItem{burger, roll, water}
	rng := rand.New(rand.NewSource(42))
	c := New()

	for step := 0; step < 5000; step++ {
		item := items[rng.Intn(len(items))]
		switch rng.Intn(3) {
		case 0:
			c.Add(item)
		case 1:
			c.Remove(item.ID)
		case 2:
			c.SetQuantity(item.ID, rng.Intn(7)-2)
		}

		seen := map[string]bool{}
		var wantItems int
		var wantPrice int64
		for _, l := range c.Lines() {
			require.False(t, seen[l.ID], "duplicate line %s at step %d", l.ID, step)
			seen[l.ID] = true
			require.GreaterOrEqual(t, l.Quantity, 1, "step %d", step)
			wantItems += l.Quantity
			wantPrice += l.Price * int64(l.Quantity)
		}
		require.Equal(t, wantItems, c.TotalItems())
		require.Equal(t, wantPrice, c.TotalPrice())
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := Store{Path: filepath.Join(t.TempDir(), "state", "cart.json")}

	empty, err := store.Load()
	require.NoError(t, err)
	assert.True(t, empty.Empty())

	c := New()
	c.Add(burger)
	c.Add(burger)
	c.Add(roll)
	require.NoError(t, store.Save(c))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, c.Lines(), loaded.Lines())
}

func TestStoreLoadRepairsInvariants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	raw := `{"lines":[
		{"_id":"a","name":"Beef Burger","price":450,"quantity":1},
		{"_id":"b","name":"Roll","price":300,"quantity":0},
		{"_id":"a","name":"Beef Burger","price":450,"quantity":2}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	loaded, err := Store{Path: path}.Load()
	require.NoError(t, err)
	lines := loaded.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err := Store{Path: path}.Load()
	assert.Error(t, err)
}
