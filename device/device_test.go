// Copyright (C) 2025 Mono Technologies Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.

package device

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/we-are-mono/razerd/types"
)

var testDescriptor = Descriptor{
	Name:     "Blade 15 (2022)",
	PID:      "0x028a",
	Features: []string{FeatureBoost, FeatureLogo, FeatureBHO},
	Fan:      [2]int{2000, 5500},
}

// newTestManager returns a manager on battery with a mock driver
func newTestManager(t *testing.T) (*Manager, *MockDriver, *MemoryStore) {
	t.Helper()
	drv := NewMockDriver()
	store := &MemoryStore{}
	m := NewManager(NewLaptop(testDescriptor, drv), store, nil)
	return m, drv, store
}

// TestReportMarshal tests framing and checksum
func TestReportMarshal(t *testing.T) {
	r := NewReport(0x0D, 0x01, 0x00, 0x01, 0x23)
	b := r.Marshal()

	assert.Equal(t, byte(0x1F), b[1])
	assert.Equal(t, byte(3), b[5])
	assert.Equal(t, byte(0x0D), b[6])
	assert.Equal(t, byte(0x01), b[7])
	assert.Equal(t, byte(0x23), b[10])
	assert.Equal(t, byte(3^0x0D^0x01^0x01^0x23), b[88])

	back, err := UnmarshalReport(b[:])
	require.NoError(t, err)
	assert.Equal(t, r, back)

	b[10] ^= 0xFF
	_, err = UnmarshalReport(b[:])
	assert.ErrorIs(t, err, ErrBadResponse)

	_, err = UnmarshalReport(b[:10])
	assert.ErrorIs(t, err, ErrBadResponse)
}

// TestCheckResponse tests status mapping
func TestCheckResponse(t *testing.T) {
	req := NewReport(0x07, 0x92)
	resp := *req

	resp.Status = StatusSuccess
	assert.NoError(t, checkResponse(req, &resp))

	resp.Status = StatusNotSupported
	assert.ErrorIs(t, checkResponse(req, &resp), ErrNotSupported)

	resp.Status = StatusBusy
	assert.ErrorIs(t, checkResponse(req, &resp), errBusy)

	resp.Status = StatusFailure
	assert.Error(t, checkResponse(req, &resp))

	resp.Status = StatusSuccess
	resp.ID = 0x12
	assert.ErrorIs(t, checkResponse(req, &resp), ErrBadResponse)
}

// TestDiscover tests model matching and interface preference
func TestDiscover(t *testing.T) {
	descs, err := LoadDescriptors("")
	require.NoError(t, err)
	require.NotEmpty(t, descs)

	t.Run("finds supported laptop on interface 0", func(t *testing.T) {
		backend := NewMockHIDBackend(
			HIDInfo{Path: "/dev/hidraw3", VendorID: RazerVendorID, ProductID: 0x028a, Interface: 2},
			HIDInfo{Path: "/dev/hidraw1", VendorID: RazerVendorID, ProductID: 0x028a, Interface: 0},
			HIDInfo{Path: "/dev/hidraw0", VendorID: 0x046d, ProductID: 0xc52b},
		)
		laptop, err := Discover(backend, descs)
		require.NoError(t, err)
		assert.Equal(t, "Blade 15 (2022)", laptop.Name)
		assert.Equal(t, []string{"/dev/hidraw1"}, backend.Opened)
	})

	t.Run("no supported laptop", func(t *testing.T) {
		backend := NewMockHIDBackend(HIDInfo{Path: "/dev/hidraw0", VendorID: RazerVendorID, ProductID: 0x0084})
		_, err := Discover(backend, descs)
		assert.ErrorIs(t, err, ErrNoDevice)
	})

	t.Run("enumeration failure", func(t *testing.T) {
		backend := NewMockHIDBackend()
		backend.EnumError = errors.New("hidapi unavailable")
		_, err := Discover(backend, descs)
		assert.ErrorContains(t, err, "hidapi unavailable")
	})

	t.Run("bad descriptor", func(t *testing.T) {
		_, err := Discover(NewMockHIDBackend(), []Descriptor{{Name: "x", PID: "zz"}})
		assert.Error(t, err)
	})
}

// TestLoadDescriptorsFromFile tests a user supplied laptop list
func TestLoadDescriptorsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.json")
	require.NoError(t, writeFile(path, `[{"name":"Custom","pid":"0x1234","features":["bho"],"fan":[1000,4000]}]`))

	descs, err := LoadDescriptors(path)
	require.NoError(t, err)
	require.Len(t, descs, 1)
	pid, err := descs[0].ProductID()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), pid)
	assert.True(t, descs[0].Has(FeatureBHO))
	assert.False(t, descs[0].Has(FeatureLogo))
	assert.Equal(t, 4000, descs[0].ClampFan(5500))
	assert.Equal(t, 1000, descs[0].ClampFan(200))

	_, err = LoadDescriptors(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

// TestLoadDescriptorsRejectsBadEntries tests catalog validation
func TestLoadDescriptorsRejectsBadEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laptops.json")
	require.NoError(t, writeFile(path, `[
  {"name":"Good","pid":"0x1234","features":["logo"],"fan":[2000,5000]},
  {"name":"Bad","pid":"zz","features":["turbo"],"fan":[5000,2000]},
  {"name":"Twin","pid":"0x1234","features":[],"fan":[0,0]}
]`))

	_, err := LoadDescriptors(path)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "laptop Bad")
	assert.Contains(t, msg, `feature "turbo"`)
	assert.Contains(t, msg, "inverted")
	assert.Contains(t, msg, "already used by Good")
}

// TestBuiltinCatalogIsValid tests the embedded laptop list
func TestBuiltinCatalogIsValid(t *testing.T) {
	descs, err := LoadDescriptors("")
	require.NoError(t, err)
	for _, d := range descs {
		assert.NoError(t, d.Validate(), d.Name)
	}
}

// TestSettersApplyOnlyForCurrentACState tests per-AC profile storage
func TestSettersApplyOnlyForCurrentACState(t *testing.T) {
	m, drv, store := newTestManager(t)
	require.False(t, m.ACState())

	assert.True(t, m.SetBrightness(true, 200), "mains profile stored while on battery")
	assert.Equal(t, 0, drv.BrightnessWrites())
	assert.Equal(t, uint8(200), m.GetBrightness(true))

	assert.True(t, m.SetBrightness(false, 90))
	assert.Equal(t, 1, drv.BrightnessWrites())
	assert.Equal(t, 90, drv.LastBrightness())
	assert.Equal(t, 2, store.Saves)

	require.NoError(t, m.SetACState(true))
	assert.Equal(t, 200, drv.LastBrightness(), "switching AC applies the mains profile")
}

// TestPowerModeAndFan tests power, boost and fan commands
func TestPowerModeAndFan(t *testing.T) {
	m, drv, _ := newTestManager(t)

	assert.False(t, m.SetPowerMode(false, 3, 0, 0), "mode 3 does not exist")
	assert.False(t, m.SetPowerMode(false, PowerCustom, 4, 0))
	assert.True(t, m.SetPowerMode(false, PowerCustom, 3, 2))
	assert.Equal(t, uint8(PowerCustom), m.GetPowerMode(false))
	assert.Equal(t, uint8(3), m.GetCPUBoost(false))
	assert.Equal(t, uint8(2), m.GetGPUBoost(false))
	assert.Equal(t, 2, drv.Count(classPower, cmdBoost))

	assert.True(t, m.SetFanRPM(false, 3500))
	assert.Equal(t, 3500, drv.LastFanRPM())
	assert.Equal(t, 3500, m.GetFanRPM(false))
	assert.Equal(t, byte(1), drv.Last(classPower, cmdPowerMode).Args[3], "manual fan flag set")

	assert.True(t, m.SetFanRPM(false, 9000))
	assert.Equal(t, 5500, drv.LastFanRPM(), "clamped to model range")

	assert.True(t, m.SetFanRPM(false, 0))
	assert.Equal(t, byte(0), drv.Last(classPower, cmdPowerMode).Args[3], "automatic fan")
	assert.False(t, m.SetFanRPM(false, -1))
}

// TestFanWithoutManualControl tests models whose catalog entry has no fan range
func TestFanWithoutManualControl(t *testing.T) {
	desc := testDescriptor
	desc.Fan = [2]int{0, 0}
	drv := NewMockDriver()
	m := NewManager(NewLaptop(desc, drv), &MemoryStore{}, nil)

	assert.False(t, m.SetFanRPM(false, 30000))
	assert.False(t, m.SetFanRPM(false, 3000))
	assert.Equal(t, 0, m.GetFanRPM(false))
	assert.Equal(t, 0, drv.FanWrites())

	assert.True(t, m.SetFanRPM(false, 0), "automatic control is always allowed")
}

// TestClampFanNeverExceedsDeviceLimit tests the byte-sized rpm encoding stays in range
func TestClampFanNeverExceedsDeviceLimit(t *testing.T) {
	assert.Equal(t, MaxFanRPM, Descriptor{}.ClampFan(30000))
	assert.Equal(t, MaxFanRPM, Descriptor{Fan: [2]int{2000, 9000}}.ClampFan(30000))
	assert.Equal(t, 2000, Descriptor{Fan: [2]int{2000, 5000}}.ClampFan(100))
	assert.False(t, Descriptor{}.ManualFan())
	assert.True(t, testDescriptor.ManualFan())
}

// TestSetterFailureReturnsFalse tests hardware errors surface as false
func TestSetterFailureReturnsFalse(t *testing.T) {
	m, drv, _ := newTestManager(t)
	drv.FailCommand(classBrightness, cmdSetBrightness, errors.New("pipe error"))
	assert.False(t, m.SetBrightness(false, 10))
}

// TestSync tests that synced profiles change together
func TestSync(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.True(t, m.SetSync(true))
	assert.True(t, m.GetSync())

	assert.True(t, m.SetLogoLEDState(false, LogoBreathing))
	assert.Equal(t, uint8(LogoBreathing), m.GetLogoLEDState(false))
	assert.Equal(t, uint8(LogoBreathing), m.GetLogoLEDState(true))
	assert.False(t, m.SetLogoLEDState(false, 3))
}

// TestLightOffRestoreIdempotent tests that repeated transitions write once
func TestLightOffRestoreIdempotent(t *testing.T) {
	m, drv, _ := newTestManager(t)

	require.NoError(t, m.LightOff())
	require.NoError(t, m.LightOff())
	assert.Equal(t, 1, drv.BrightnessWrites())
	assert.Equal(t, 0, drv.LastBrightness())
	assert.True(t, m.LightIsOff())

	assert.True(t, m.SetBrightness(false, 77), "brightness is stored while dark")
	assert.Equal(t, 1, drv.BrightnessWrites())

	require.NoError(t, m.RestoreLight())
	require.NoError(t, m.RestoreLight())
	assert.Equal(t, 2, drv.BrightnessWrites())
	assert.Equal(t, 77, drv.LastBrightness())
	assert.False(t, m.LightIsOff())
}

// TestNoDevice tests behavior without a laptop
func TestNoDevice(t *testing.T) {
	m := NewManager(nil, nil, nil)
	assert.False(t, m.HasDevice())
	assert.Equal(t, UnknownDeviceName, m.Name())
	assert.False(t, m.SetBrightness(false, 1))
	assert.False(t, m.SetSync(true))
	assert.False(t, m.SetStandardEffect(EffectWave, nil))
	assert.ErrorIs(t, m.LightOff(), ErrNoDevice)
	assert.ErrorIs(t, m.SetKeyColors(types.ColorMap{}), ErrNoDevice)
	_, _, ok := m.GetBHO()
	assert.False(t, ok)
}

// TestStandardEffectRestore tests that the last firmware effect is persisted
func TestStandardEffectRestore(t *testing.T) {
	m, drv, store := newTestManager(t)

	assert.True(t, m.SetStandardEffect(EffectStarlight, types.Params{1, 2}))
	require.NotNil(t, store.Settings.StandardEffect)

	// a fresh manager restores from the store
	drv2 := NewMockDriver()
	m2 := NewManager(NewLaptop(testDescriptor, drv2), store, nil)
	require.NoError(t, m2.RestoreStandardEffect())
	effect, ok := drv2.LastMatrixEffect()
	require.True(t, ok)
	assert.Equal(t, EffectStarlight, effect)

	_, ok = drv.LastMatrixEffect()
	assert.True(t, ok)
}

// TestParseStandardEffect tests the name table
func TestParseStandardEffect(t *testing.T) {
	for _, name := range []string{"off", "wave", "reactive", "breathing", "spectrum", "static", "starlight"} {
		e, ok := ParseStandardEffect(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, e.String())
	}
	_, ok := ParseStandardEffect("custom")
	assert.False(t, ok)
	_, ok = ParseStandardEffect("disco")
	assert.False(t, ok)
	assert.Equal(t, "custom", EffectCustom.String())
}

// TestSetKeyColors tests the custom frame upload
func TestSetKeyColors(t *testing.T) {
	m, drv, _ := newTestManager(t)
	require.NoError(t, m.SetKeyColors(types.Fill(types.RGB{G: 255})))
	assert.Equal(t, types.MatrixRows, drv.FrameWrites())

	row := drv.Last(classMatrix, cmdMatrixFrame)
	assert.Equal(t, byte(types.MatrixRows-1), row.Args[1])
	assert.Equal(t, byte(255), row.Args[5], "green of first key")

	effect, _ := drv.LastMatrixEffect()
	assert.Equal(t, EffectCustom, effect)
}

// TestBHO tests the battery health optimizer encoding
func TestBHO(t *testing.T) {
	m, drv, _ := newTestManager(t)

	assert.True(t, m.SetBHO(true, 80))
	assert.Equal(t, byte(0x80|80), drv.BHO)

	on, threshold, ok := m.GetBHO()
	require.True(t, ok)
	assert.True(t, on)
	assert.Equal(t, uint8(80), threshold)

	assert.False(t, m.SetBHO(true, 101))

	noBHO := NewManager(NewLaptop(Descriptor{Name: "old"}, NewMockDriver()), nil, nil)
	assert.False(t, noBHO.SetBHO(true, 60))
	_, _, ok = noBHO.GetBHO()
	assert.False(t, ok)
}

// TestRefreshACState tests reading the AC source
func TestRefreshACState(t *testing.T) {
	online := true
	drv := NewMockDriver()
	m := NewManager(NewLaptop(testDescriptor, drv), nil, func() (bool, error) { return online, nil })

	require.NoError(t, m.RefreshACState())
	assert.True(t, m.ACState())
	writes := drv.PowerModeWrites()
	assert.Positive(t, writes)

	require.NoError(t, m.RefreshACState())
	assert.Equal(t, writes, drv.PowerModeWrites(), "unchanged state is not re-applied")

	assert.Error(t, NewManager(nil, nil, nil).RefreshACState())
}

// TestWatchRearm tests idle/active watch bookkeeping
func TestWatchRearm(t *testing.T) {
	m, _, _ := newTestManager(t)
	mon := NewMockIdleMonitor()

	require.NoError(t, m.AddIdleWatch(mon))
	require.NoError(t, m.AddIdleWatch(mon))
	addIdle, _, _ := mon.Counts()
	assert.Equal(t, 1, addIdle, "live idle watch is not duplicated")

	idleID, activeID := m.WatchIDs()
	assert.NotZero(t, idleID)
	assert.Zero(t, activeID)
	assert.Equal(t, uint64(300000), mon.Watches[idleID])

	assert.Equal(t, WatchIdle, m.ConsumeWatch(idleID))
	assert.Equal(t, WatchIdle, m.ConsumeWatch(idleID), "idle watch is persistent")

	require.NoError(t, m.AddActiveWatch(mon))
	require.NoError(t, m.AddActiveWatch(mon))
	_, addActive, _ := mon.Counts()
	assert.Equal(t, 1, addActive)

	_, activeID = m.WatchIDs()
	assert.Equal(t, WatchActive, m.ConsumeWatch(activeID))
	assert.Equal(t, WatchUnknown, m.ConsumeWatch(activeID), "active watch is one-shot")
	assert.Equal(t, WatchUnknown, m.ConsumeWatch(0))

	require.NoError(t, m.AddActiveWatch(mon))
	_, addActive, _ = mon.Counts()
	assert.Equal(t, 2, addActive)

	// a new timeout replaces the idle watch
	assert.True(t, m.SetIdle(false, 60))
	require.NoError(t, m.AddIdleWatch(mon))
	addIdle, _, removes := mon.Counts()
	assert.Equal(t, 2, addIdle)
	assert.Equal(t, 1, removes)
	newIdle, _ := m.WatchIDs()
	assert.Equal(t, uint64(60000), mon.Watches[newIdle])

	// timeout 0 disables the watch
	assert.True(t, m.SetIdle(false, 0))
	require.NoError(t, m.AddIdleWatch(mon))
	idleID, _ = m.WatchIDs()
	assert.Zero(t, idleID)
}

// TestWatchAddFailure tests that a failed registration is retried later
func TestWatchAddFailure(t *testing.T) {
	m, _, _ := newTestManager(t)
	mon := NewMockIdleMonitor()
	mon.AddError = errors.New("no mutter")

	assert.Error(t, m.AddIdleWatch(mon))
	assert.Error(t, m.AddActiveWatch(mon))

	mon.AddError = nil
	require.NoError(t, m.AddIdleWatch(mon))
	require.NoError(t, m.AddActiveWatch(mon))
	idle, active := m.WatchIDs()
	assert.NotZero(t, idle)
	assert.NotZero(t, active)
}

// TestStateStore tests settings persistence through the state package
func TestStateStore(t *testing.T) {
	t.Setenv("RAZERD_STATE_DIR", t.TempDir())
	store := NewStateStore("device")

	_, err := store.Load()
	assert.Error(t, err, "nothing saved yet")

	s := DefaultSettings()
	s.Sync = true
	s.Profiles[1].FanRPM = 4500
	require.NoError(t, store.Save(s))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s, loaded)
}
