package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name,brand,price,weight,shape,wireless,dpi_max,grip_compatibility,hand_compatibility,genre,url
Viper Mini,Razer,39.99,61,symmetrical,false,8500,claw;fingertip,ambidextrous,fps,https://example.com/viper-mini
G Pro X Superlight,Logitech,149.99,63,symmetrical,true,25600,claw,right,fps,
Basilisk V3,Razer,,101.5,ergonomic,false,26000,palm,right,general,
`

func TestRead(t *testing.T) {
	c, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())

	viper := c.Mice[0]
	assert.Equal(t, "Viper Mini", viper.Name)
	assert.Equal(t, "Razer", viper.Brand)
	require.NotNil(t, viper.PriceUSD)
	assert.InDelta(t, 39.99, *viper.PriceUSD, 1e-9)
	require.NotNil(t, viper.Wireless)
	assert.False(t, *viper.Wireless)
	assert.Equal(t, []string{"claw", "fingertip"}, viper.GripCompatibility)
	assert.Equal(t, "ambidextrous", viper.HandCompatibility)

	// Empty cells stay unset rather than becoming zero.
	basilisk := c.Mice[2]
	assert.Nil(t, basilisk.PriceUSD)
	require.NotNil(t, basilisk.WeightGrams)
	assert.InDelta(t, 101.5, *basilisk.WeightGrams, 1e-9)
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	_, err := Read(strings.NewReader("name,price\nViper,50\n"))
	require.Error(t, err)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "brand")
}

func TestRead_NegativePrice(t *testing.T) {
	_, err := Read(strings.NewReader("name,brand,price\nViper,Razer,-5\n"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestRead_FloatIntegerColumns(t *testing.T) {
	c, err := Read(strings.NewReader("name,brand,dpi_max\nViper,Razer,26000.0\n"))
	require.NoError(t, err)
	require.NotNil(t, c.Mice[0].MaxDPI)
	assert.Equal(t, 26000, *c.Mice[0].MaxDPI)
}

func TestFingerprint_ChangesWithAnyRow(t *testing.T) {
	base, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	same, err := Read(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	assert.Equal(t, base.Fingerprint(), same.Fingerprint())

	altered, err := Read(strings.NewReader(strings.Replace(sampleCSV, "61", "62", 1)))
	require.NoError(t, err)
	assert.NotEqual(t, base.Fingerprint(), altered.Fingerprint())

	// Row count is part of the fingerprint.
	assert.True(t, strings.HasPrefix(base.Fingerprint(), "3:"))
}

func TestFingerprint_AbsentVsZero(t *testing.T) {
	withZero, err := Read(strings.NewReader("name,brand,price\nViper,Razer,0\n"))
	require.NoError(t, err)
	withEmpty, err := Read(strings.NewReader("name,brand,price\nViper,Razer,\n"))
	require.NoError(t, err)
	assert.NotEqual(t, withZero.Fingerprint(), withEmpty.Fingerprint())
}
