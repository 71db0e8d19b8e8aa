package detector

import (
	"errors"
	"math"
	"testing"
)

func TestHandLandmarks_Validate(t *testing.T) {
	t.Run("open palm is valid", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		if err := hand.Validate(); err != nil {
			t.Errorf("expected valid hand, got %v", err)
		}
	})

	t.Run("nil hand is invalid", func(t *testing.T) {
		var hand *HandLandmarks
		if err := hand.Validate(); !errors.Is(err, ErrInvalidHand) {
			t.Errorf("expected ErrInvalidHand, got %v", err)
		}
	})

	t.Run("NaN coordinate is invalid", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Points[IndexTip].Y = math.NaN()
		if err := hand.Validate(); !errors.Is(err, ErrInvalidHand) {
			t.Errorf("expected ErrInvalidHand, got %v", err)
		}
	})

	t.Run("infinite coordinate is invalid", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Points[Wrist].X = math.Inf(1)
		if err := hand.Validate(); !errors.Is(err, ErrInvalidHand) {
			t.Errorf("expected ErrInvalidHand, got %v", err)
		}
	})

	t.Run("score out of range is invalid", func(t *testing.T) {
		hand := OpenPalmLandmarks()
		hand.Score = 1.5
		if err := hand.Validate(); !errors.Is(err, ErrInvalidHand) {
			t.Errorf("expected ErrInvalidHand, got %v", err)
		}
	})
}

func TestSanitize(t *testing.T) {
	bad := OpenPalmLandmarks()
	bad.Points[Wrist].Y = math.NaN()

	tests := []struct {
		name     string
		hands    []HandLandmarks
		maxHands int
		want     int
	}{
		{"nil input", nil, 2, 0},
		{"drops invalid", []HandLandmarks{bad, OpenPalmLandmarks()}, 2, 1},
		{"caps at max", []HandLandmarks{HandAt("Left", 0.3, 0.5), HandAt("Right", 0.7, 0.5), OpenPalmLandmarks()}, 2, 2},
		{"zero max keeps all", []HandLandmarks{OpenPalmLandmarks(), OpenPalmLandmarks(), OpenPalmLandmarks()}, 0, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.hands, tt.maxHands)
			if len(got) != tt.want {
				t.Errorf("len(Sanitize()) = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestHandAt(t *testing.T) {
	hand := HandAt("Left", 0.25, 0.4)

	if hand.Handedness != "Left" {
		t.Errorf("expected handedness Left, got %s", hand.Handedness)
	}
	wrist := hand.Wrist()
	if wrist.X != 0.25 || wrist.Y != 0.4 {
		t.Errorf("wrist = (%f, %f), want (0.25, 0.4)", wrist.X, wrist.Y)
	}

	// Fingers keep their shape relative to the wrist
	palm := OpenPalmLandmarks()
	wantOffset := palm.Points[MiddleTip].Y - palm.Points[Wrist].Y
	gotOffset := hand.Points[MiddleTip].Y - wrist.Y
	if math.Abs(gotOffset-wantOffset) > 1e-9 {
		t.Errorf("middle tip offset = %f, want %f", gotOffset, wantOffset)
	}
}

func TestParseResponse(t *testing.T) {
	points := `[` + repeatPoint(NumLandmarks) + `]`

	t.Run("empty hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands": []}`), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("one valid hand", func(t *testing.T) {
		line := `{"hands": [{"points": ` + points + `, "handedness": "Left", "score": 0.9}]}`
		hands, err := parseResponse([]byte(line), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Left" {
			t.Errorf("expected Left, got %s", hands[0].Handedness)
		}
		if hands[0].Wrist().Y != 0.5 {
			t.Errorf("expected wrist y 0.5, got %f", hands[0].Wrist().Y)
		}
	})

	t.Run("short hand dropped", func(t *testing.T) {
		line := `{"hands": [{"points": [` + repeatPoint(5) + `], "handedness": "Left", "score": 0.9}]}`
		hands, err := parseResponse([]byte(line), 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected malformed hand to be dropped, got %d", len(hands))
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{"hands": [], "error": "decode failed"}`), 2); err == nil {
			t.Error("expected error from service error field")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := parseResponse([]byte(`not json`), 2); err == nil {
			t.Error("expected parse error")
		}
	})
}

func repeatPoint(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ","
		}
		s += `{"x": 0.5, "y": 0.5, "z": 0.0}`
	}
	return s
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{HandAt("Left", 0.3, 0.5), HandAt("Right", 0.7, 0.5)})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
	})

	t.Run("plays sequence then falls back", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetSequence([][]HandLandmarks{
			{HandAt("Right", 0.5, 0.1)},
			nil,
		})

		first, _ := mock.Detect(nil)
		second, _ := mock.Detect(nil)
		third, _ := mock.Detect(nil)

		if len(first) != 1 || first[0].Wrist().Y != 0.1 {
			t.Errorf("unexpected first result %v", first)
		}
		if second != nil || third != nil {
			t.Error("expected no hands after the scripted hand")
		}
		if mock.Calls() != 3 {
			t.Errorf("expected 3 calls, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("Close marks closed", func(t *testing.T) {
		mock := NewMockDetector()

		if err := mock.Close(); err != nil {
			t.Errorf("expected Close to return nil, got %v", err)
		}
		if !mock.Closed() {
			t.Error("expected mock to report closed")
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestOpenPalmLandmarks(t *testing.T) {
	landmarks := OpenPalmLandmarks()

	t.Run("has correct handedness and score", func(t *testing.T) {
		if landmarks.Handedness != "Right" {
			t.Errorf("expected handedness Right, got %s", landmarks.Handedness)
		}
		if landmarks.Score < 0.9 {
			t.Errorf("expected score >= 0.9, got %f", landmarks.Score)
		}
	})

	t.Run("all fingers are extended", func(t *testing.T) {
		minExtension := 0.2

		pairs := map[string][2]int{
			"index":  {IndexMCP, IndexTip},
			"middle": {MiddleMCP, MiddleTip},
			"ring":   {RingMCP, RingTip},
			"pinky":  {PinkyMCP, PinkyTip},
		}
		for name, p := range pairs {
			ext := landmarks.Points[p[0]].Y - landmarks.Points[p[1]].Y
			if ext < minExtension {
				t.Errorf("%s finger not extended enough (extension: %f), expected >= %f", name, ext, minExtension)
			}
		}
	})
}
