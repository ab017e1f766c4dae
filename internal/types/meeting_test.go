package types

import "testing"

func TestParsePhase(t *testing.T) {
	cases := []struct {
		in   string
		want Phase
		ok   bool
	}{
		{"Implementation", PhaseImplementation, true},
		{"implementation", PhaseImplementation, true},
		{"  Requirement Analysis.  ", PhaseRequirementAnalysis, true},
		{`"Design"`, PhaseDesign, true},
		{"The discussion is in the Testing phase", PhaseTesting, true},
		{"Deployment and Maintenance", PhaseDeploymentMaintenance, true},
		{"", "", false},
		{"Planning", "", false},
	}
	for _, tc := range cases {
		got, ok := ParsePhase(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParsePhase(%q): want=(%q,%v) got=(%q,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestPhaseOrderAndCodeGenRequirement(t *testing.T) {
	if len(OrderedPhases) != 6 {
		t.Fatalf("phase count: want=6 got=%d", len(OrderedPhases))
	}
	if OrderedPhases[0] != PhaseConceptualization {
		t.Fatalf("initial phase: want=%q got=%q", PhaseConceptualization, OrderedPhases[0])
	}
	if OrderedPhases[5] != PhaseDeploymentMaintenance {
		t.Fatalf("terminal phase: want=%q got=%q", PhaseDeploymentMaintenance, OrderedPhases[5])
	}

	for _, p := range []Phase{PhaseConceptualization, PhaseRequirementAnalysis, PhaseDesign} {
		if p.RequiresCodeGeneration() {
			t.Fatalf("%q should not require code generation", p)
		}
	}
	for _, p := range []Phase{PhaseImplementation, PhaseTesting, PhaseDeploymentMaintenance} {
		if !p.RequiresCodeGeneration() {
			t.Fatalf("%q should require code generation", p)
		}
	}
	if Phase("bogus").RequiresCodeGeneration() {
		t.Fatalf("unknown phase should not require code generation")
	}
}
