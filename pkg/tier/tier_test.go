package tier

import (
	"testing"

	"github.com/matzehuels/tierpack/pkg/errors"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		input   string
		want    Tier
		wantErr bool
	}{
		{"basics", Basics, false},
		{"module", Module, false},
		{"screen", Screen, false},
		{"modules", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTier(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTier(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParseTier(%q) code = %s", tt.input, errors.GetCode(err))
		}
		if got != tt.want {
			t.Errorf("ParseTier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBase(t *testing.T) {
	tests := []struct {
		tier Tier
		inst Instance
		want int
	}{
		{Basics, NoInstance, 0},
		{Module, Instance{0, -1}, 100000},
		{Module, Instance{2, -1}, 300000},
		{Screen, Instance{0, 0}, 200000},
		{Screen, Instance{1, 2}, 500000},
	}
	for _, tt := range tests {
		if got := Base(tt.tier, tt.inst); got != tt.want {
			t.Errorf("Base(%s, %v) = %d, want %d", tt.tier, tt.inst, got, tt.want)
		}
	}
}

func TestBaseOverlap(t *testing.T) {
	// Known collisions of the additive screen scheme.
	if Base(Screen, Instance{0, 0}) != Base(Module, Instance{1, -1}) {
		t.Error("screen (0,0) should share its base with module 1")
	}
	if Base(Screen, Instance{0, 1}) != Base(Screen, Instance{1, 0}) {
		t.Error("screens (0,1) and (1,0) should share a base")
	}
}

func TestInstanceString(t *testing.T) {
	tests := []struct {
		inst Instance
		want string
	}{
		{NoInstance, "basics"},
		{Instance{1, -1}, "module[1]"},
		{Instance{1, 3}, "screen[1,3]"},
	}
	for _, tt := range tests {
		if got := tt.inst.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name string
		full string
		root string
		want string
	}{
		{"project file", "/work/shop/src/A.js", "/work/shop", "shop/src/A.js"},
		{"dependency", "/work/shop/node_modules/react/index.js", "/work/shop", "shop/node_modules/react/index.js"},
		{"outside root", "/opt/lib/x.js", "/work/shop", "/opt/lib/x.js"},
		{"first occurrence", "/shop/work/shop/a.js", "/work/shop", "shop/work/shop/a.js"},
		{"trailing slash root", "/work/shop/a.js", "/work/shop/", "shop/a.js"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePath(tt.full, tt.root); got != tt.want {
				t.Errorf("NormalizePath(%q, %q) = %q, want %q", tt.full, tt.root, got, tt.want)
			}
		})
	}
}
