// Package control provides the control inputs fed to a [dynamo.System].
//
// The membrane charge density is an input of the mechanical model, not a
// state: electrical dynamics are out of scope, so [Constant] supplies the
// same charge at every step.
//
//	sim := dynamo.New(sonophore, integ, control.NewConstant(membrane.Charge))
package control
