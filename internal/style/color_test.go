package style

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Color
		wantErr bool
	}{
		{name: "short hex", input: "#fff", want: White},
		{name: "long hex", input: "#ff6b6b", want: Color{R: 255, G: 107, B: 107, A: 1}},
		{name: "hex with alpha", input: "#00000080", want: Color{A: 128.0 / 255}},
		{name: "upper case", input: "#FFFFFF", want: White},
		{name: "rgb", input: "rgb(1, 2, 3)", want: Color{R: 1, G: 2, B: 3, A: 1}},
		{name: "rgba", input: "rgba(0, 0, 0, 0.7)", want: Color{A: 0.7}},
		{name: "rgba no spaces", input: "rgba(10,20,30,1)", want: Color{R: 10, G: 20, B: 30, A: 1}},
		{name: "component out of range", input: "rgb(256, 0, 0)", wantErr: true},
		{name: "alpha out of range", input: "rgba(0, 0, 0, 1.5)", wantErr: true},
		{name: "missing alpha", input: "rgba(0, 0, 0)", wantErr: true},
		{name: "bad hex length", input: "#ffff", wantErr: true},
		{name: "bad hex digits", input: "#gggggg", wantErr: true},
		{name: "named color", input: "red", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.R, got.R)
			assert.Equal(t, tt.want.G, got.G)
			assert.Equal(t, tt.want.B, got.B)
			assert.InDelta(t, tt.want.A, got.A, 1e-9)
		})
	}
}

func TestColor_String(t *testing.T) {
	assert.Equal(t, "#ffffff", White.String())
	assert.Equal(t, "rgba(0, 0, 0, 0.7)", Color{A: 0.7}.String())
}

func TestColor_JSON(t *testing.T) {
	var got struct {
		Fill Color `json:"fill"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"fill":"rgba(0, 0, 0, 0.6)"}`), &got))
	assert.InDelta(t, 0.6, got.Fill.A, 1e-9)

	out, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `{"fill":"rgba(0, 0, 0, 0.6)"}`, string(out))

	require.Error(t, json.Unmarshal([]byte(`{"fill":"not-a-color"}`), &got))
}
