package cart

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(v float64) *float64 { return &v }

func tee(size string, qty int) LineItem {
	return LineItem{ProductID: "tee", Name: "Classic Tee", UnitPrice: 20, Quantity: qty, Size: size}
}

func TestAddMergesSameKey(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(tee("M", 1)))
	require.NoError(t, c.Add(tee("M", 2)))

	lines := c.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Quantity)
}

func TestAddKeepsSizesApart(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(tee("M", 1)))
	require.NoError(t, c.Add(tee("L", 1)))

	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 2, c.Count())
}

func TestAddRejectsBadQuantity(t *testing.T) {
	c := New()
	assert.ErrorIs(t, c.Add(tee("M", 0)), ErrInvalidQuantity)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, Empty, c.State())
}

func TestTotalWithDiscount(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(LineItem{ProductID: "a", UnitPrice: 20, Quantity: 2, Discount: pct(10), Size: "M"}))
	require.NoError(t, c.Add(LineItem{ProductID: "b", UnitPrice: 5, Quantity: 3, Size: "S"}))

	assert.InDelta(t, 51.0, c.Total(), 1e-9)
	assert.Equal(t, "51.00", c.FormattedTotal())
	assert.Equal(t, Populated, c.State())
}

func TestSetQuantity(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(tee("M", 1)))

	c.SetQuantity("tee", "M", 4)
	assert.Equal(t, 4, c.Count())

	c.SetQuantity("tee", "M", 0)
	assert.Equal(t, 4, c.Count())

	c.SetQuantity("tee", "XL", 2)
	assert.Equal(t, 1, c.Len())
}

func TestRemoveAndClear(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(tee("M", 1)))
	require.NoError(t, c.Add(tee("L", 1)))

	c.Remove("tee", "M")
	c.Remove("tee", "XXL")
	require.Len(t, c.Lines(), 1)
	assert.Equal(t, "L", c.Lines()[0].Size)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, "0.00", c.FormattedTotal())
}

func TestAddOpensView(t *testing.T) {
	opened := 0
	c := New(WithOpenListener(func() { opened++ }))
	assert.False(t, c.IsOpen())

	require.NoError(t, c.Add(tee("M", 1)))
	assert.True(t, c.IsOpen())
	assert.Equal(t, 1, opened)

	c.Toggle()
	assert.False(t, c.IsOpen())
}

func TestLinesReturnsCopy(t *testing.T) {
	c := New()
	require.NoError(t, c.Add(tee("M", 1)))
	lines := c.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Count())
}

func TestConcurrentAdds(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.Add(tee("M", 1))
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 50, c.Count())
}
