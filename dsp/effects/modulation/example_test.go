package modulation_test

import (
	"fmt"

	"github.com/cwbudde/algo-fx/dsp/effects/modulation"
)

func ExampleRingModulator() {
	r, err := modulation.NewRingModulator(8000)
	if err != nil {
		panic(err)
	}
	_ = r.SetCarrierHz(2000)

	for range 4 {
		fmt.Printf("%.2f ", r.ProcessSample(1))
	}
	fmt.Println()
	// Output: 0.00 1.00 0.00 -1.00
}

func ExampleVibrato() {
	v, err := modulation.NewVibrato(48000)
	if err != nil {
		panic(err)
	}
	_ = v.SetDepthMs(0)

	for i := range 4 {
		in := 0.0
		if i == 0 {
			in = 1
		}
		fmt.Print(v.ProcessSample(in), " ")
	}
	fmt.Println()
	// Output: 0 0 1 0
}
