package record

import "testing"

func TestMedicationConfig_IsInfusion(t *testing.T) {
	cases := []struct {
		name string
		med  MedicationConfig
		want bool
	}{
		{"rate unit set", MedicationConfig{RateUnit: "ml/h"}, true},
		{"infusion group", MedicationConfig{AdminGroup: "Infusions"}, true},
		{"perfusor group", MedicationConfig{AdminGroup: "Perfusor Syringes"}, true},
		{"plain bolus", MedicationConfig{AdminGroup: "Induction"}, false},
		{"empty", MedicationConfig{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.med.IsInfusion(); got != tc.want {
				t.Errorf("IsInfusion() = %v, want %v", got, tc.want)
			}
		})
	}
}
