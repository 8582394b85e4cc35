// Package physics provides the mechanical model of the bilayer sonophore.
//
// [Sonophore] implements [dynamo.System] over the state [U, Z, ng]: leaflet
// center velocity, center deflection and moles of gas between the leaflets.
// The intermolecular pressure is delegated to a [PressureSource], normally a
// pressure.Evaluator, which is the only term that differs between direct and
// predicted runs.
//
//	ev, _ := pressure.NewEvaluator(pressure.Direct, membrane, nil, nil)
//	s, _ := physics.NewSonophore(membrane, physics.Drive{Frequency: 500e3, Amplitude: 100e3}, ev, logger)
//	x0, _ := s.InitialState(dt)
//	sim := dynamo.New(s, integrators.NewRK45WithAbsTol(s.AbsTol()), control.NewConstant(membrane.Charge))
package physics
