package lighting

import (
	"keylight-go/drivers/pca963x"
	"keylight-go/errcode"
	"keylight-go/services/lighting/ledarray"
)

func init() {
	RegisterBuilder("memory", BuilderFunc(buildMemory))
	RegisterBuilder("pca963x", BuilderFunc(buildPCA963x))
}

func buildMemory(in BuildInput) (ledarray.Array, error) {
	return ledarray.NewMemory(in.Config.Count), nil
}

func buildPCA963x(in BuildInput) (ledarray.Array, error) {
	op := "build " + in.Config.Name
	if in.Config.Count > pca963x.MaxChannels {
		return nil, &errcode.E{C: errcode.InvalidConfig, Op: op, Msg: "pca963x drives at most 4 LEDs"}
	}
	if in.Buses == nil {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: op, Msg: in.Config.Bus}
	}
	i2c, ok := in.Buses.ByID(in.Config.Bus)
	if !ok {
		return nil, &errcode.E{C: errcode.UnknownBus, Op: op, Msg: in.Config.Bus}
	}
	dev := pca963x.New(i2c)
	if err := dev.Configure(pca963x.Config{Address: in.Config.Addr, Channels: in.Config.Count}); err != nil {
		return dev, errcode.Wrap(errcode.DeviceNotReady, op, err)
	}
	return dev, nil
}
