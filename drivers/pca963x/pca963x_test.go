package pca963x

import (
	"errors"
	"testing"
)

// fakeI2C models the register file of one device.
type fakeI2C struct {
	addr uint16
	regs [16]byte
	txs  int
	fail error
}

func (f *fakeI2C) ReadRegister(addr uint8, r uint8, buf []byte) error {
	return f.Tx(uint16(addr), []byte{r}, buf)
}

func (f *fakeI2C) WriteRegister(addr uint8, r uint8, buf []byte) error {
	return f.Tx(uint16(addr), append([]byte{r}, buf...), nil)
}

func (f *fakeI2C) Tx(addr uint16, w, r []byte) error {
	if f.fail != nil {
		return f.fail
	}
	if addr != f.addr {
		return errors.New("nack")
	}
	f.txs++
	if len(w) == 0 {
		return nil
	}
	reg := w[0] &^ autoIncrement
	for i, b := range w[1:] {
		f.regs[int(reg)+i] = b
	}
	for i := range r {
		r[i] = f.regs[int(reg)+i]
	}
	return nil
}

func TestConfigureProgramsModeAndOutputs(t *testing.T) {
	bus := &fakeI2C{addr: Address}
	bus.regs[regPWM0] = 0x55

	d := New(bus)
	if d.Ready() {
		t.Fatal("ready before Configure")
	}
	if err := d.Configure(Config{Channels: 2, Invert: true}); err != nil {
		t.Fatal(err)
	}
	if !d.Ready() || d.Count() != 2 {
		t.Fatalf("Ready=%v Count=%d", d.Ready(), d.Count())
	}
	if bus.regs[regMode1] != mode1Normal || bus.regs[regMode2] != mode2OutDrive|0x10 {
		t.Fatalf("mode1=%#x mode2=%#x", bus.regs[regMode1], bus.regs[regMode2])
	}
	if bus.regs[regLEDOut] != ledOutPWM {
		t.Fatalf("ledout=%#x", bus.regs[regLEDOut])
	}
	if bus.regs[regPWM0] != 0 || bus.regs[regPWM0+1] != 0 {
		t.Fatal("channels not darkened at Configure")
	}
}

func TestSetBrightnessScalesPercent(t *testing.T) {
	bus := &fakeI2C{addr: 0x61}
	d := New(bus)
	if err := d.Configure(Config{Address: 0x61}); err != nil {
		t.Fatal(err)
	}
	cases := map[uint8]byte{0: 0, 100: 255, 50: 128, 10: 26, 200: 255}
	for pct, want := range cases {
		if err := d.SetBrightness(3, pct); err != nil {
			t.Fatal(err)
		}
		if got := bus.regs[regPWM0+3]; got != want {
			t.Fatalf("%d%% -> %d, want %d", pct, got, want)
		}
	}
}

func TestSetAllBurst(t *testing.T) {
	bus := &fakeI2C{addr: Address}
	d := New(bus)
	if err := d.Configure(Config{Channels: 3}); err != nil {
		t.Fatal(err)
	}
	before := bus.txs
	if err := d.SetAll(100); err != nil {
		t.Fatal(err)
	}
	if bus.txs-before != 1 {
		t.Fatalf("SetAll used %d transactions", bus.txs-before)
	}
	for i := 0; i < 3; i++ {
		if bus.regs[regPWM0+i] != 255 {
			t.Fatalf("channel %d = %d", i, bus.regs[regPWM0+i])
		}
	}
	if bus.regs[regPWM0+3] != 0 {
		t.Fatal("unpopulated channel written")
	}
}

func TestErrors(t *testing.T) {
	bus := &fakeI2C{addr: Address}
	d := New(bus)
	if err := d.SetBrightness(0, 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
	if err := d.Configure(Config{Channels: 2}); err != nil {
		t.Fatal(err)
	}
	if err := d.SetBrightness(2, 10); !errors.Is(err, ErrChannel) {
		t.Fatalf("err = %v, want ErrChannel", err)
	}

	bus.fail = errors.New("bus stuck")
	if err := d.SetBrightness(0, 10); err == nil {
		t.Fatal("bus failure not reported")
	}

	absent := New(&fakeI2C{addr: 0x10})
	if err := absent.Configure(Config{}); err == nil || absent.Ready() {
		t.Fatal("Configure succeeded without a device")
	}
}
