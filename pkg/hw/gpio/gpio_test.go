package gpio

import "testing"

func TestNewDriver_Mock(t *testing.T) {
	drv, err := NewDriver(true)
	if err != nil {
		t.Fatalf("NewDriver(mock): %v", err)
	}
	defer drv.Close()
	if _, ok := drv.(*MockDriver); !ok {
		t.Fatalf("NewDriver(true) = %T, want *MockDriver", drv)
	}
}

func TestMockDriver_Levels(t *testing.T) {
	m := NewMockDriver()
	if err := m.SetupInput(17); err != nil {
		t.Fatal(err)
	}

	level, err := m.ReadPin(17)
	if err != nil {
		t.Fatal(err)
	}
	if level != High {
		t.Errorf("unset pin = %v, want High (pull-up)", level)
	}

	m.Set(17, Low)
	if level, _ := m.ReadPin(17); level != Low {
		t.Errorf("pin after Set(Low) = %v", level)
	}
	if level, _ := m.ReadPin(18); level != High {
		t.Errorf("other pin = %v, want High", level)
	}
}
