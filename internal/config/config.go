package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server    ServerConfig
	Media     MediaConfig
	Detect    DetectConfig
	Inference InferenceConfig
	Whisper   WhisperConfig
	R2        R2Config
	Cleanup   CleanupConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type MediaConfig struct {
	UploadDir   string
	OutputDir   string
	FFmpegPath  string
	FFprobePath string
	YTDLPPath   string
	MaxUploadMB int
}

// DetectConfig carries every tunable of the detection engine. The constants
// vary between scan/scorer variants, so all of them are explicit here rather
// than baked into the code.
type DetectConfig struct {
	Strategy string // "dense" or "peaks"
	Scorer   string // "audio_event" or "transcript_humor"

	// Dense scan
	WindowSec float64
	StepSec   float64
	MinRMS    float64

	// Peak-detection scan
	PeakFrameSec        float64
	PeakPercentile      float64
	PeakRetryPercentile float64
	PeakMinDistanceSec  float64

	// Fusion weights and acceptance
	EnergyWeight    float64
	EventWeight     float64
	HumorWeight     float64
	KeywordWeight   float64
	SentimentWeight float64
	AcceptThreshold float64

	// Selection and planning
	MaxClips         int
	MinSeparationSec float64
	ClipRadiusSec    float64
}

type InferenceConfig struct {
	AudioURL   string
	TextURL    string
	APIKey     string
	TimeoutSec int
}

type WhisperConfig struct {
	Bin   string
	Model string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type CleanupConfig struct {
	Retries   int
	BackoffMS int
}

func Load() (*Config, error) {
	readSecret("INFERENCE_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("media.upload_dir", "UPLOAD_DIR")
	_ = viper.BindEnv("media.output_dir", "OUTPUT_DIR")
	_ = viper.BindEnv("media.ffmpeg_path", "FFMPEG_PATH")
	_ = viper.BindEnv("media.ffprobe_path", "FFPROBE_PATH")
	_ = viper.BindEnv("media.ytdlp_path", "YTDLP_PATH")
	_ = viper.BindEnv("media.max_upload_mb", "MAX_UPLOAD_MB")
	_ = viper.BindEnv("detect.strategy", "DETECT_STRATEGY")
	_ = viper.BindEnv("detect.scorer", "DETECT_SCORER")
	_ = viper.BindEnv("detect.window_sec", "DETECT_WINDOW_SEC")
	_ = viper.BindEnv("detect.step_sec", "DETECT_STEP_SEC")
	_ = viper.BindEnv("detect.min_rms", "DETECT_MIN_RMS")
	_ = viper.BindEnv("detect.accept_threshold", "DETECT_ACCEPT_THRESHOLD")
	_ = viper.BindEnv("detect.max_clips", "DETECT_MAX_CLIPS")
	_ = viper.BindEnv("detect.min_separation_sec", "DETECT_MIN_SEPARATION_SEC")
	_ = viper.BindEnv("detect.clip_radius_sec", "DETECT_CLIP_RADIUS_SEC")
	_ = viper.BindEnv("inference.audio_url", "INFERENCE_AUDIO_URL")
	_ = viper.BindEnv("inference.text_url", "INFERENCE_TEXT_URL")
	_ = viper.BindEnv("inference.api_key", "INFERENCE_API_KEY")
	_ = viper.BindEnv("inference.timeout", "INFERENCE_TIMEOUT")
	_ = viper.BindEnv("whisper.bin", "WHISPER_BIN")
	_ = viper.BindEnv("whisper.model", "WHISPER_MODEL")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("cleanup.retries", "CLEANUP_RETRIES")
	_ = viper.BindEnv("cleanup.backoff_ms", "CLEANUP_BACKOFF_MS")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")

	viper.SetDefault("media.upload_dir", "uploads")
	viper.SetDefault("media.output_dir", "outputs")
	viper.SetDefault("media.ffmpeg_path", "ffmpeg")
	viper.SetDefault("media.ffprobe_path", "ffprobe")
	viper.SetDefault("media.ytdlp_path", "yt-dlp")
	viper.SetDefault("media.max_upload_mb", 500)

	// Detection defaults: 5s windows with dense 2s steps isolate laughter
	// from surrounding speech; the RMS gate skips near-silent audio before
	// the classifier runs.
	viper.SetDefault("detect.strategy", "dense")
	viper.SetDefault("detect.scorer", "audio_event")
	viper.SetDefault("detect.window_sec", 5.0)
	viper.SetDefault("detect.step_sec", 2.0)
	viper.SetDefault("detect.min_rms", 0.002)
	viper.SetDefault("detect.peak_frame_sec", 1.0)
	viper.SetDefault("detect.peak_percentile", 75.0)
	viper.SetDefault("detect.peak_retry_percentile", 60.0)
	viper.SetDefault("detect.peak_min_distance_sec", 10.0)
	viper.SetDefault("detect.energy_weight", 0.4)
	viper.SetDefault("detect.event_weight", 0.6)
	viper.SetDefault("detect.humor_weight", 0.6)
	viper.SetDefault("detect.keyword_weight", 0.4)
	viper.SetDefault("detect.sentiment_weight", 0.6)
	viper.SetDefault("detect.accept_threshold", 0.02)
	viper.SetDefault("detect.max_clips", 3)
	viper.SetDefault("detect.min_separation_sec", 30.0)
	viper.SetDefault("detect.clip_radius_sec", 20.0)

	viper.SetDefault("inference.audio_url", "")
	viper.SetDefault("inference.text_url", "")
	viper.SetDefault("inference.timeout", 120)

	viper.SetDefault("whisper.bin", "")
	viper.SetDefault("whisper.model", "")

	viper.SetDefault("cleanup.retries", 5)
	viper.SetDefault("cleanup.backoff_ms", 200)

	// Config file is optional
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Media: MediaConfig{
			UploadDir:   viper.GetString("media.upload_dir"),
			OutputDir:   viper.GetString("media.output_dir"),
			FFmpegPath:  viper.GetString("media.ffmpeg_path"),
			FFprobePath: viper.GetString("media.ffprobe_path"),
			YTDLPPath:   viper.GetString("media.ytdlp_path"),
			MaxUploadMB: viper.GetInt("media.max_upload_mb"),
		},
		Detect: DetectConfig{
			Strategy:            viper.GetString("detect.strategy"),
			Scorer:              viper.GetString("detect.scorer"),
			WindowSec:           viper.GetFloat64("detect.window_sec"),
			StepSec:             viper.GetFloat64("detect.step_sec"),
			MinRMS:              viper.GetFloat64("detect.min_rms"),
			PeakFrameSec:        viper.GetFloat64("detect.peak_frame_sec"),
			PeakPercentile:      viper.GetFloat64("detect.peak_percentile"),
			PeakRetryPercentile: viper.GetFloat64("detect.peak_retry_percentile"),
			PeakMinDistanceSec:  viper.GetFloat64("detect.peak_min_distance_sec"),
			EnergyWeight:        viper.GetFloat64("detect.energy_weight"),
			EventWeight:         viper.GetFloat64("detect.event_weight"),
			HumorWeight:         viper.GetFloat64("detect.humor_weight"),
			KeywordWeight:       viper.GetFloat64("detect.keyword_weight"),
			SentimentWeight:     viper.GetFloat64("detect.sentiment_weight"),
			AcceptThreshold:     viper.GetFloat64("detect.accept_threshold"),
			MaxClips:            viper.GetInt("detect.max_clips"),
			MinSeparationSec:    viper.GetFloat64("detect.min_separation_sec"),
			ClipRadiusSec:       viper.GetFloat64("detect.clip_radius_sec"),
		},
		Inference: InferenceConfig{
			AudioURL:   viper.GetString("inference.audio_url"),
			TextURL:    viper.GetString("inference.text_url"),
			APIKey:     viper.GetString("inference.api_key"),
			TimeoutSec: viper.GetInt("inference.timeout"),
		},
		Whisper: WhisperConfig{
			Bin:   viper.GetString("whisper.bin"),
			Model: viper.GetString("whisper.model"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Cleanup: CleanupConfig{
			Retries:   viper.GetInt("cleanup.retries"),
			BackoffMS: viper.GetInt("cleanup.backoff_ms"),
		},
	}

	return cfg, nil
}
