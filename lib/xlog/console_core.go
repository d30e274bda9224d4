package xlog

import (
	"go.uber.org/zap/zapcore"
)

var _ xLogCore = (*consoleCore)(nil)

type consoleCore struct {
	lvlEnc zapcore.LevelEncoder
	tsEnc  zapcore.TimeEncoder
}

func (cc *consoleCore) build(
	lvlEnabler zapcore.LevelEnabler,
	encoder LogEncoderType,
	writer LogOutWriterType,
) (core zapcore.Core, stop func() error, err error) {
	config := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "lvl",
		EncodeLevel:   cc.lvlEnc,
		TimeKey:       "ts",
		EncodeTime:    cc.tsEnc,
		CallerKey:     "callAt",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		FunctionKey:   coreKeyIgnored,
		NameKey:       "component",
		EncodeName:    zapcore.FullNameEncoder,
		StacktraceKey: coreKeyIgnored,
	}
	ws, stop := getOutWriterByType(writer)
	core = zapcore.NewCore(getEncoderByType(encoder)(config), ws, lvlEnabler)
	return core, stop, nil
}

var _ xLogCore = (*wrappedCore)(nil)

// wrappedCore hands an externally built core (tee, observer, sampler)
// to the xlogger. The level enabler still filters before the core.
type wrappedCore struct {
	core zapcore.Core
}

func (wc *wrappedCore) build(
	lvlEnabler zapcore.LevelEnabler,
	_ LogEncoderType,
	_ LogOutWriterType,
) (core zapcore.Core, stop func() error, err error) {
	core, err = zapcore.NewIncreaseLevelCore(wc.core, lvlEnabler)
	if err != nil {
		// The external core is already stricter than the level.
		return wc.core, nil, nil
	}
	return core, nil, nil
}
