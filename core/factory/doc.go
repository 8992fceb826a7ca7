// Package factory builds pluggable modules (solver backends, metrics sinks)
// from configuration entries of the form {type, conf}. Each module package
// registers a Factory under its type name in init; Decode maps the raw conf
// onto the module's own settings struct.
//
//	_ = solver.RegisterBackend("bnb", func(conf map[string]any) (solver.Backend, error) {
//		var o bnb.Options
//		if err := factory.Decode(conf, &o); err != nil {
//			return nil, err
//		}
//		return bnb.New(o), nil
//	})
package factory
