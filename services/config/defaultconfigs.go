package config

// -----------------------------------------------------------------------------
// Embedded board profiles
//
// Key: board name (same value placed in ctx under CtxDeviceKey)
// Val: raw YAML for that board. Each top-level key becomes config/<key>.
// -----------------------------------------------------------------------------

const cfgBBP9981 = `
lighting:
  backlight:
    name: backlight
    count: 4
    driver: pca963x
    bus: i2c0
    addr: 0x62
  trackpad:
    name: trackpad
    count: 2
    driver: pca963x
    bus: i2c0
    addr: 0x61
heartbeat:
  interval: 10
`

const cfgHost = `
lighting:
  backlight:
    name: backlight
    count: 12
    driver: memory
  trackpad:
    name: trackpad
    count: 2
    driver: memory
heartbeat:
  interval: 2
`

var embeddedConfigs = map[string][]byte{
	"bbp9981": []byte(cfgBBP9981),
	"host":    []byte(cfgHost),
}
