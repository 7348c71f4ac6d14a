package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct{ player, date, from, to, fee string }

func (r row) key() string { return Key(r.player, r.date, r.from, r.to, r.fee) }

func TestKeyJoinsRawFields(t *testing.T) {
	assert.Equal(t, "A B|05/01/2025|X|Y|€1m", Key("A B", "05/01/2025", "X", "Y", "€1m"))
}

func TestStableIDDeterministic(t *testing.T) {
	base := row{"Declan Rice", "15/07/2023", "West Ham", "Arsenal", "€116.60m"}
	id := StableID(base.key())
	assert.Positive(t, id)
	assert.Equal(t, id, StableID(base.key()))

	variants := []row{
		{"Declan Rice ", base.date, base.from, base.to, base.fee},
		{base.player, "16/07/2023", base.from, base.to, base.fee},
		{base.player, base.date, "West Ham United", base.to, base.fee},
		{base.player, base.date, base.from, "Arsenal FC", base.fee},
		{base.player, base.date, base.from, base.to, "€116.6m"},
	}
	for _, v := range variants {
		assert.NotEqual(t, id, StableID(v.key()), v)
	}
}

func TestLegacyIDMatchesStringHash(t *testing.T) {
	assert.Equal(t, int64(1), LegacyID(""))
	assert.Equal(t, int64(97), LegacyID("a"))
	assert.Equal(t, int64(3105), LegacyID("ab"))
	// Hashes to math.MinInt32; the absolute value must not overflow.
	assert.Equal(t, int64(2147483648), LegacyID("polygenelubricants"))
}

func TestLegacyIDUsesUTF16Units(t *testing.T) {
	// U+1F600 encodes as the surrogate pair D83D DE00.
	want := int64(0xD83D*31 + 0xDE00)
	assert.Equal(t, want, LegacyID("😀"))
}

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator("")
	require.NoError(t, err)
	assert.Equal(t, FNV64, g.Scheme())

	g, err = NewGenerator("LEGACY32")
	require.NoError(t, err)
	assert.Equal(t, Legacy32, g.Scheme())
	assert.Equal(t, LegacyID(Key("p", "d", "f", "t", "x")), g.ID("p", "d", "f", "t", "x"))

	_, err = NewGenerator("md5")
	assert.Error(t, err)
}
