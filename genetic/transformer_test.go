package genetic

import "testing"

func TestTransformerFitTransform(t *testing.T) {
	X, y := syntheticData(40, 4, 21)
	tr := NewTransformer(
		PopulationSize(30), Generations(3), TournamentSize(3), RandomState(3),
		HallOfFame(10), NComponents(4),
	)

	if err := tr.Fit(X, y, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(tr.Components) != 4 {
		t.Fatalf("got %d components, want 4", len(tr.Components))
	}

	out, err := tr.Transform(X)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(out) != len(X) {
		t.Fatalf("Transform returned %d rows, want %d", len(out), len(X))
	}
	for i, row := range out {
		if len(row) != 4 {
			t.Fatalf("row %d has %d columns, want 4", i, len(row))
		}
	}
}

func TestTransformerComponentsAreDistinctPrograms(t *testing.T) {
	X, y := syntheticData(30, 3, 22)
	tr := NewTransformer(
		PopulationSize(25), Generations(2), TournamentSize(3), RandomState(4),
		HallOfFame(15), NComponents(5),
	)
	if err := tr.Fit(X, y, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	for i := 0; i < len(tr.Components); i++ {
		for j := i + 1; j < len(tr.Components); j++ {
			if tr.Components[i] == tr.Components[j] {
				t.Errorf("component %d and %d are the same program pointer", i, j)
			}
		}
	}
}

func TestTransformerFitRejectsHallOfFameMisconfig(t *testing.T) {
	X, y := syntheticData(10, 2, 23)
	tr := NewTransformer(PopulationSize(5), HallOfFame(10))
	if err := tr.Fit(X, y, nil); err == nil {
		t.Error("expected ConfigurationError for hall_of_fame > population_size")
	}
}

func TestTransformerTransformBeforeFit(t *testing.T) {
	tr := NewTransformer()
	if _, err := tr.Transform([][]float64{{1, 2}}); err == nil {
		t.Error("expected error calling Transform before Fit")
	}
}

func TestTransformerTransformShapeError(t *testing.T) {
	X, y := syntheticData(20, 3, 24)
	tr := NewTransformer(PopulationSize(15), Generations(2), TournamentSize(3), HallOfFame(10), NComponents(3))
	if err := tr.Fit(X, y, nil); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if _, err := tr.Transform([][]float64{{1, 2}}); err == nil {
		t.Error("expected ShapeError for mismatched column count")
	}
}
