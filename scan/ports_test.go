package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePorts(t *testing.T) {
	cases := map[string][]uint16{
		"22,80":           {22, 80},
		"80,22":           {22, 80},
		"1-3,2":           {1, 2, 3},
		"0,70000,443":     {443},
		"22, 80 ,22":      {22, 80},
		"65530-70000":     {65530, 65531, 65532, 65533, 65534, 65535},
		"10-1":            {},
		"0-2":             {1, 2},
		"22,80,8000-8002": {22, 80, 8000, 8001, 8002},
		"22,":             {22},
	}
	for spec, want := range cases {
		t.Run(spec, func(t *testing.T) {
			got, err := ParsePorts(spec)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestParsePortsSortedAndInRange(t *testing.T) {
	got, err := ParsePorts("9000-9010,1,65535,65536,5,5,100-90,3-7")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i, p := range got {
		assert.GreaterOrEqual(t, p, uint16(MinPort))
		if i > 0 {
			assert.Less(t, got[i-1], p, "ports must be strictly ascending")
		}
	}
}

// 超出int范围的整数和其他越界值一样被丢弃或截断
func TestParsePortsOverflow(t *testing.T) {
	cases := map[string][]uint16{
		"99999999999999999999,443":                  {443},
		"65534-99999999999999999999":                {65534, 65535},
		"99999999999999999999-99999999999999999999": {},
	}
	for spec, want := range cases {
		t.Run(spec, func(t *testing.T) {
			got, err := ParsePorts(spec)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	got, err := ParsePorts("22,1-99999999999999999999")
	require.NoError(t, err)
	require.Len(t, got, MaxPort)
	assert.Equal(t, uint16(MinPort), got[0])
	assert.Equal(t, uint16(MaxPort), got[len(got)-1])

	_, err = ResolvePorts("99999999999999999999")
	assert.True(t, IsCode(err, CodePortInvalid), "nothing left after dropping is still an error")
}

func TestParsePortsInvalid(t *testing.T) {
	for _, spec := range []string{"abc", "22,http", "1-x", "-5", "1-2-3"} {
		t.Run(spec, func(t *testing.T) {
			_, err := ParsePorts(spec)
			require.Error(t, err)
			assert.True(t, IsCode(err, CodePortInvalid), "got %v", err)
		})
	}
}

func TestResolvePorts(t *testing.T) {
	got, err := ResolvePorts("")
	require.NoError(t, err)
	assert.Equal(t, []uint16{22, 80, 443, 3389, 8080}, got)

	got[0] = 1
	assert.Equal(t, uint16(22), DefaultPorts[0], "defaults must not be shared")

	_, err = ResolvePorts("0,70000")
	assert.True(t, IsCode(err, CodePortInvalid))

	got, err = ResolvePorts("443")
	require.NoError(t, err)
	assert.Equal(t, []uint16{443}, got)
}

func TestDescribePort(t *testing.T) {
	assert.Equal(t, "ssh", DescribePort(22))
	assert.Equal(t, "http", DescribePort(80))
	assert.Equal(t, "", DescribePort(1))
}
