package whisperx

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func argsContainPair(args []string, flag, value string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestBuildArgsCPUDefaults(t *testing.T) {
	svc := NewService(Config{}, "")
	args := svc.buildArgs("/tmp/audiencia.wav", "/tmp/out")

	if !argsContainPair(args, "--index-url", PypiIndexURL) {
		t.Fatalf("args missing pypi index: %v", args)
	}
	if !argsContainPair(args, "--model", DefaultModel) {
		t.Fatalf("args missing default model: %v", args)
	}
	if !argsContainPair(args, "--language", DefaultLanguage) {
		t.Fatalf("args missing default language: %v", args)
	}
	if !argsContainPair(args, "--vad_method", VADMethodSilero) {
		t.Fatalf("args missing silero vad: %v", args)
	}
	if !argsContainPair(args, "--device", CPUDevice) || !argsContainPair(args, "--compute_type", CPUComputeType) {
		t.Fatalf("args missing cpu device settings: %v", args)
	}
	for _, arg := range args {
		if arg == "--hf_token" {
			t.Fatal("hf_token must not be passed for silero vad")
		}
	}
}

func TestBuildArgsCUDAAndPyannote(t *testing.T) {
	svc := NewService(Config{
		Model:       "large-v3",
		CUDAEnabled: true,
		Language:    "pt",
		VADMethod:   VADMethodPyannote,
		HFToken:     "hf_abc",
	}, "")
	args := svc.buildArgs("/tmp/audiencia.wav", "/tmp/out")

	if !argsContainPair(args, "--index-url", CUDAIndexURL) {
		t.Fatalf("args missing cuda index: %v", args)
	}
	if !argsContainPair(args, "--device", CUDADevice) {
		t.Fatalf("args missing cuda device: %v", args)
	}
	if !argsContainPair(args, "--vad_method", VADMethodPyannote) || !argsContainPair(args, "--hf_token", "hf_abc") {
		t.Fatalf("args missing pyannote token: %v", args)
	}
}

func TestExtractAudioUsesCommandRunner(t *testing.T) {
	svc := NewService(Config{}, "")

	var gotName string
	var gotArgs []string
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	})

	if err := svc.ExtractAudio(context.Background(), "/tmp/gravacao.mp4", "/tmp/audiencia.wav"); err != nil {
		t.Fatalf("ExtractAudio: %v", err)
	}
	if gotName != FFmpegCommand {
		t.Fatalf("command = %q, want ffmpeg", gotName)
	}
	if !argsContainPair(gotArgs, "-map", "0:a:0") {
		t.Fatalf("args missing first audio stream map: %v", gotArgs)
	}
	if !argsContainPair(gotArgs, "-ac", "1") || !argsContainPair(gotArgs, "-ar", "16000") {
		t.Fatalf("args missing mono 16kHz settings: %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/audiencia.wav" {
		t.Fatalf("destination = %q", gotArgs[len(gotArgs)-1])
	}
}

func TestTranscribeFileLoadsSegments(t *testing.T) {
	outputDir := t.TempDir()
	svc := NewService(Config{}, "")
	svc.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != UVXCommand {
			t.Fatalf("command = %q, want uvx", name)
		}
		payload := `{"segments": [
			{"text": " Declaro aberta a audiência. ", "start": 0, "end": 3.2},
			{"text": "", "start": 3.2, "end": 3.4},
			{"text": "A reclamada contesta os pedidos.", "start": 3.4, "end": 7.1}
		]}`
		return os.WriteFile(filepath.Join(outputDir, "audiencia.json"), []byte(payload), 0o644)
	})

	result, err := svc.TranscribeFile(context.Background(), filepath.Join(outputDir, "audiencia.wav"), outputDir)
	if err != nil {
		t.Fatalf("TranscribeFile: %v", err)
	}
	want := "Declaro aberta a audiência. A reclamada contesta os pedidos."
	if result.Text != want {
		t.Fatalf("text = %q, want %q", result.Text, want)
	}
	if !strings.HasSuffix(result.JSONPath, "audiencia.json") || !strings.HasSuffix(result.SRTPath, "audiencia.srt") {
		t.Fatalf("output paths = %q / %q", result.JSONPath, result.SRTPath)
	}
}

func TestTranscribeFileRequiresSource(t *testing.T) {
	svc := NewService(Config{}, "")
	if _, err := svc.TranscribeFile(context.Background(), "", t.TempDir()); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestLoadSegmentsRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audiencia.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSegments(path); err == nil {
		t.Fatal("expected parse error")
	}
}
