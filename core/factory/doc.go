// Package factory provides a small generic registry used to instantiate
// pluggable modules from configuration. A module is described by a type
// string and a map of raw settings; factories decode the settings into typed
// structs and return the concrete implementation.
//
// Example usage:
//
//	reg := factory.NewRegistry[scheduler.SlotFinder]()
//	reg.Register("GREEDY", func(conf map[string]any) (scheduler.SlotFinder, error) {
//	    var c struct{ Step int `json:"step"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return scheduler.Greedy{Step: c.Step}, nil
//	})
//	f, err := reg.Create(factory.ModuleConfig{Type: "GREEDY", Conf: map[string]any{"step": 20}})
package factory
