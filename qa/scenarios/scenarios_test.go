package scenarios

import (
	"os"
	"path/filepath"
	"testing"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob("*.yaml")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenario files found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestBatteryDefDefaults(t *testing.T) {
	spec := BatteryDef{CapacityKWh: 10, PowerKW: 5}.ToModel()
	if err := spec.Validate(); err != nil {
		t.Fatalf("defaulted battery should validate: %v", err)
	}
	if spec.ChargeEfficiency != 1 || spec.DischargeEfficiency != 1 {
		t.Fatalf("expected ideal efficiencies, got %v/%v",
			spec.ChargeEfficiency, spec.DischargeEfficiency)
	}
	if spec.MaxSoC != 1 {
		t.Fatalf("expected full soc band, got max %v", spec.MaxSoC)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestLoadDefaultsResolution(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sc.yaml")
	body := "name: minimal\nbattery:\n  capacity_kwh: 10\n  power_kw: 5\nsteps:\n  - load_kw: 1\n    price: 0.1\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if sc.DtHours != 1 {
		t.Fatalf("expected default 1h resolution, got %v", sc.DtHours)
	}
}
