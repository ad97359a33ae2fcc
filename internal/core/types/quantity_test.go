package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		in      string
		want    Quantity
		wantErr bool
	}{
		{in: "7", want: 7},
		{in: "+3", want: 3},
		{in: "-4", want: -4},
		{in: "10.00", want: 10},
		{in: "2.5", wantErr: true},
		{in: "1e3", want: 1000},
		{in: "2.5E2", want: 250},
		{in: "-1e2", want: -100},
		{in: "0e-5", want: 0},
		{in: "1e-1", wantErr: true},
		{in: "12e-1", wantErr: true},
		{in: "9223372036854775807", want: 9223372036854775807},
		{in: "9223372036854775808", wantErr: true},
		{in: "1e19", wantErr: true},
		{in: "1e999999999", wantErr: true},
		{in: "0x10", wantErr: true},
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseQuantity(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestQuantity_JSON(t *testing.T) {
	var body struct {
		Qty Quantity `json:"qty"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"qty": 12}`), &body))
	assert.Equal(t, Quantity(12), body.Qty)

	require.NoError(t, json.Unmarshal([]byte(`{"qty": "8"}`), &body))
	assert.Equal(t, Quantity(8), body.Qty)

	assert.Error(t, json.Unmarshal([]byte(`{"qty": 1.5}`), &body))

	require.NoError(t, json.Unmarshal([]byte(`{"qty": 1e3}`), &body))
	assert.Equal(t, Quantity(1000), body.Qty)
	require.NoError(t, json.Unmarshal([]byte(`{"qty": 8}`), &body))

	out, err := json.Marshal(body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"qty": 8}`, string(out))
}

func TestExtend(t *testing.T) {
	assert.True(t, MustMoney("37.5").Equal(Extend(3, MustMoney("12.5"))))
	assert.True(t, Zero().Equal(Extend(0, MustMoney("9.99"))))
}

func TestParseQuantity_WrapsSentinel(t *testing.T) {
	for _, in := range []string{"", "2.5", "abc", "1e-1", "1e30"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidQuantity, in)
	}
}
