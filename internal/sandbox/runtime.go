package sandbox

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// stubSource defines `require` for modules left external by the bundler.
// Every external module is one inert value: reading, calling or
// constructing it yields itself and it converts to an empty string.
const stubSource = `var require = (function () {
  var stub;
  var target = function () {};
  var empty = function () { return ''; };
  stub = new Proxy(target, {
    get: function (t, key) {
      if (key === Symbol.toPrimitive || key === 'toString' || key === 'valueOf') return empty;
      if (key === '__esModule') return false;
      if (key === 'then' || typeof key === 'symbol') return undefined;
      return stub;
    },
    apply: function () { return stub; },
    construct: function () { return stub; },
  });
  return function require() { return stub; };
})();
`

var stubProgram = goja.MustCompile("flair:require-stub", stubSource, false)

func newRuntime(log *zap.Logger) (*goja.Runtime, error) {
	vm := goja.New()

	console := vm.NewObject()
	for _, method := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(method, func(call goja.FunctionCall) goja.Value {
			parts := make([]string, len(call.Arguments))
			for i, arg := range call.Arguments {
				parts[i] = arg.String()
			}
			log.Debug("console."+method, zap.String("message", strings.Join(parts, " ")))
			return goja.Undefined()
		}); err != nil {
			return nil, err
		}
	}
	if err := vm.Set("console", console); err != nil {
		return nil, err
	}

	if _, err := vm.RunProgram(stubProgram); err != nil {
		return nil, err
	}
	return vm, nil
}
