package profile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLookupAliases(t *testing.T) {
	cases := map[string]string{
		"Ender":           "ender",
		"creatlity":       "ender",
		"3Dpotter":        "super",
		"3D Potter":       "super",
		"Super":           "super",
		"3DpotterMicro":   "micro",
		"Micro":           "micro",
		"Matrix":          "matrix",
		"Eazao":           "eazao",
		"civil":           "civil",
		"tronxy":          "tronxy",
		"3D Potter Micro": "micro",
	}
	for name, want := range cases {
		p, err := Lookup(name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", name, err)
			continue
		}
		if p.Name != want {
			t.Errorf("Lookup(%q).Name = %q, want %q", name, p.Name, want)
		}
		if err := p.Validate(); err != nil {
			t.Errorf("Lookup(%q) invalid: %v", name, err)
		}
	}
}

func TestLookupValues(t *testing.T) {
	p, err := Lookup("super")
	if err != nil {
		t.Fatal(err)
	}
	got := []float64{p.Nozzle, p.ExtrudeWidth, p.LayerHeight, p.ExtrudeRate, p.Speed, p.Resolution, p.BedX, p.BedY, p.PrintHeadSize}
	want := []float64{3.0, 3.4, 2.2, 3.0, 1000, 1.0, 400, 400, 102}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("super = %v, want %v", got, want)
	}
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("makerbot")
	if !errors.Is(err, ErrUnknownProfile) {
		t.Errorf("Lookup(makerbot) = %v, want ErrUnknownProfile", err)
	}
}

func TestLookupMaterial(t *testing.T) {
	for name, mix := range map[string]float64{"clay": 0.90, "Clay": 0.90, "play dough": 0.92, "Play Dough": 0.92, "metal": 0.95} {
		m, err := LookupMaterial(name)
		if err != nil {
			t.Errorf("LookupMaterial(%q) error: %v", name, err)
			continue
		}
		if m.Mix != mix {
			t.Errorf("LookupMaterial(%q).Mix = %v, want %v", name, m.Mix, mix)
		}
	}
	if _, err := LookupMaterial("porcelain"); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("LookupMaterial(porcelain) = %v, want ErrUnknownMaterial", err)
	}
}

type parseTestCase struct {
	desc    string
	ext     string
	data    string
	want    func(p *Profile)
	wantErr bool
}

func TestParse(t *testing.T) {
	cases := []parseTestCase{
		{
			desc: "yaml override",
			ext:  ".yaml",
			data: "base: micro\nspeed: 900\nextrude_rate: 2\n",
			want: func(p *Profile) {
				*p, _ = Lookup("micro")
				p.Speed = 900
				p.ExtrudeRate = 2
			},
		},
		{
			desc: "toml override with name",
			ext:  ".toml",
			data: "base = \"eazao\"\nname = \"studio eazao\"\nlayer_height = 0.8\n",
			want: func(p *Profile) {
				*p, _ = Lookup("eazao")
				p.Name = "studio eazao"
				p.LayerHeight = 0.8
			},
		},
		{
			desc: "default base",
			ext:  ".yml",
			data: "density: 1.8\n",
			want: func(p *Profile) {
				*p, _ = Lookup(DefaultBase)
				p.Density = 1.8
			},
		},
		{desc: "unknown yaml key", ext: ".yaml", data: "sped: 900\n", wantErr: true},
		{desc: "unknown toml key", ext: ".toml", data: "sped = 900\n", wantErr: true},
		{desc: "unknown base", ext: ".yaml", data: "base: makerbot\n", wantErr: true},
		{desc: "bad value", ext: ".yaml", data: "speed: 0\n", wantErr: true},
		{desc: "bad extension", ext: ".json", data: "{}", wantErr: true},
	}
	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			got, err := Parse([]byte(c.data), c.ext)
			if c.wantErr {
				if err == nil {
					t.Errorf("Parse(%q) = %+v, want error", c.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", c.data, err)
			}
			var want Profile
			c.want(&want)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Parse(%q) =\n%+v\nwant\n%+v", c.data, got, want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "studio.toml")
	if err := os.WriteFile(path, []byte("base = \"super\"\nresolution = 0.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Name != "super" || p.Resolution != 0.5 {
		t.Errorf("Load = %q resolution %v, want super resolution 0.5", p.Name, p.Resolution)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Errorf("Load(missing) succeeded")
	}
}
