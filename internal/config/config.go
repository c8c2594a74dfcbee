package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig   `mapstructure:"paths"`
	Audio    AudioConfig   `mapstructure:"audio"`
	Text     TextConfig    `mapstructure:"text"`
	Data     DataConfig    `mapstructure:"data"`
	Speaker  SpeakerConfig `mapstructure:"speaker"`
	Runtime  RuntimeConfig `mapstructure:"runtime"`
	LogLevel string        `mapstructure:"log_level"`
}

type PathsConfig struct {
	TrainingFiles   string `mapstructure:"training_files"`
	ValidationFiles string `mapstructure:"validation_files"`
	OutputDir       string `mapstructure:"output_dir"`
}

// AudioConfig holds waveform and mel spectrogram parameters.
type AudioConfig struct {
	MaxWavValue     float64 `mapstructure:"max_wav_value"`
	SamplingRate    int     `mapstructure:"sampling_rate"`
	LoadMelFromDisk bool    `mapstructure:"load_mel_from_disk"`
	FilterLength    int     `mapstructure:"filter_length"`
	HopLength       int     `mapstructure:"hop_length"`
	WinLength       int     `mapstructure:"win_length"`
	NMelChannels    int     `mapstructure:"n_mel_channels"`
	MelFmin         float64 `mapstructure:"mel_fmin"`
	MelFmax         float64 `mapstructure:"mel_fmax"`
}

type TextConfig struct {
	Cleaners           []string `mapstructure:"cleaners"`
	Encoder            string   `mapstructure:"encoder"`
	SentencePieceModel string   `mapstructure:"sentencepiece_model"`
}

type DataConfig struct {
	Seed           int64  `mapstructure:"seed"`
	NFramesPerStep int    `mapstructure:"n_frames_per_step"`
	BatchSize      int    `mapstructure:"batch_size"`
	Workers        int    `mapstructure:"workers"`
	Delimiter      string `mapstructure:"delimiter"`
	DropLast       bool   `mapstructure:"drop_last"`
}

type SpeakerConfig struct {
	AppendEmbedding bool   `mapstructure:"append_embedding"`
	Dimension       int    `mapstructure:"dimension"`
	ModelPath       string `mapstructure:"model_path"`
	InputName       string `mapstructure:"input_name"`
	OutputName      string `mapstructure:"output_name"`
	VADMode         int    `mapstructure:"vad_mode"`
}

type RuntimeConfig struct {
	ORTLibraryPath string `mapstructure:"ort_library_path"`
	ORTAPIVersion  uint32 `mapstructure:"ort_api_version"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			TrainingFiles:   "filelists/train.txt",
			ValidationFiles: "filelists/val.txt",
			OutputDir:       "mels",
		},
		Audio: AudioConfig{
			MaxWavValue:     32768.0,
			SamplingRate:    22050,
			LoadMelFromDisk: false,
			FilterLength:    1024,
			HopLength:       256,
			WinLength:       1024,
			NMelChannels:    80,
			MelFmin:         0.0,
			MelFmax:         8000.0,
		},
		Text: TextConfig{
			Cleaners: []string{"english_cleaners"},
			Encoder:  EncoderSymbols,
		},
		Data: DataConfig{
			Seed:           1234,
			NFramesPerStep: 1,
			BatchSize:      64,
			Workers:        4,
			Delimiter:      "|",
			DropLast:       true,
		},
		Speaker: SpeakerConfig{
			AppendEmbedding: true,
			Dimension:       256,
			ModelPath:       "models/speaker_encoder.onnx",
			InputName:       "mels",
			OutputName:      "embeds",
			VADMode:         3,
		},
		Runtime: RuntimeConfig{
			ORTAPIVersion: 23,
		},
		LogLevel: "info",
	}
}

// binding ties a config key to its command-line flag.
type binding struct {
	key  string
	flag string
}

var bindings = []binding{
	{"paths.training_files", "training-files"},
	{"paths.validation_files", "validation-files"},
	{"paths.output_dir", "output-dir"},
	{"audio.max_wav_value", "max-wav-value"},
	{"audio.sampling_rate", "sampling-rate"},
	{"audio.load_mel_from_disk", "load-mel-from-disk"},
	{"audio.filter_length", "filter-length"},
	{"audio.hop_length", "hop-length"},
	{"audio.win_length", "win-length"},
	{"audio.n_mel_channels", "n-mel-channels"},
	{"audio.mel_fmin", "mel-fmin"},
	{"audio.mel_fmax", "mel-fmax"},
	{"text.cleaners", "text-cleaners"},
	{"text.encoder", "text-encoder"},
	{"text.sentencepiece_model", "sentencepiece-model"},
	{"data.seed", "seed"},
	{"data.n_frames_per_step", "n-frames-per-step"},
	{"data.batch_size", "batch-size"},
	{"data.workers", "workers"},
	{"data.delimiter", "delimiter"},
	{"data.drop_last", "drop-last"},
	{"speaker.append_embedding", "append-speaker-embedding"},
	{"speaker.dimension", "speaker-dimension"},
	{"speaker.model_path", "speaker-model-path"},
	{"speaker.input_name", "speaker-input-name"},
	{"speaker.output_name", "speaker-output-name"},
	{"speaker.vad_mode", "vad-mode"},
	{"runtime.ort_library_path", "ort-lib"},
	{"runtime.ort_api_version", "ort-api-version"},
	{"log_level", "log-level"},
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("training-files", defaults.Paths.TrainingFiles, "Training manifest (audio|ppg-or-text[|mel] per line)")
	fs.String("validation-files", defaults.Paths.ValidationFiles, "Validation manifest")
	fs.String("output-dir", defaults.Paths.OutputDir, "Directory for precomputed mel files")
	fs.Float64("max-wav-value", defaults.Audio.MaxWavValue, "Amplitude divisor applied to raw PCM samples")
	fs.Int("sampling-rate", defaults.Audio.SamplingRate, "Required waveform sample rate in Hz")
	fs.Bool("load-mel-from-disk", defaults.Audio.LoadMelFromDisk, "Load precomputed mel arrays instead of computing them")
	fs.Int("filter-length", defaults.Audio.FilterLength, "STFT FFT size")
	fs.Int("hop-length", defaults.Audio.HopLength, "STFT hop size in samples")
	fs.Int("win-length", defaults.Audio.WinLength, "STFT window length in samples")
	fs.Int("n-mel-channels", defaults.Audio.NMelChannels, "Number of mel channels")
	fs.Float64("mel-fmin", defaults.Audio.MelFmin, "Lowest mel filter frequency in Hz")
	fs.Float64("mel-fmax", defaults.Audio.MelFmax, "Highest mel filter frequency in Hz (0 = Nyquist)")
	fs.StringSlice("text-cleaners", defaults.Text.Cleaners, "Ordered list of text cleaners")
	fs.String("text-encoder", defaults.Text.Encoder, "Text encoder (symbols|sentencepiece)")
	fs.String("sentencepiece-model", defaults.Text.SentencePieceModel, "SentencePiece model path for --text-encoder=sentencepiece")
	fs.Int64("seed", defaults.Data.Seed, "Manifest shuffle seed")
	fs.Int("n-frames-per-step", defaults.Data.NFramesPerStep, "Decoder frames per step; padded mel length is a multiple of this")
	fs.Int("batch-size", defaults.Data.BatchSize, "Examples per batch")
	fs.Int("workers", defaults.Data.Workers, "Concurrent example fetches per batch")
	fs.String("delimiter", defaults.Data.Delimiter, "Manifest field delimiter")
	fs.Bool("drop-last", defaults.Data.DropLast, "Drop the final partial batch")
	fs.Bool("append-speaker-embedding", defaults.Speaker.AppendEmbedding, "Append the speaker embedding to every PPG frame")
	fs.Int("speaker-dimension", defaults.Speaker.Dimension, "Speaker embedding dimension")
	fs.String("speaker-model-path", defaults.Speaker.ModelPath, "Speaker encoder ONNX model")
	fs.String("speaker-input-name", defaults.Speaker.InputName, "Speaker encoder input tensor name")
	fs.String("speaker-output-name", defaults.Speaker.OutputName, "Speaker encoder output tensor name")
	fs.Int("vad-mode", defaults.Speaker.VADMode, "Voice activity aggressiveness used for silence trimming (0-3)")
	fs.String("ort-lib", defaults.Runtime.ORTLibraryPath, "Path to ONNX Runtime shared library")
	fs.Uint32("ort-api-version", defaults.Runtime.ORTAPIVersion, "ONNX Runtime C API version expected by the purego binding")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		fs := opts.Cmd.Flags()
		for _, b := range bindings {
			f := fs.Lookup(b.flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(b.key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %q: %w", b.flag, err)
			}
		}
	}

	v.SetEnvPrefix("PPGTTS")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	if err := v.BindEnv("runtime.ort_library_path", "PPGTTS_ORT_LIB", "ORT_LIBRARY_PATH"); err != nil {
		return Config{}, fmt.Errorf("bind ort env vars: %w", err)
	}
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("ppgtts")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.training_files", c.Paths.TrainingFiles)
	v.SetDefault("paths.validation_files", c.Paths.ValidationFiles)
	v.SetDefault("paths.output_dir", c.Paths.OutputDir)
	v.SetDefault("audio.max_wav_value", c.Audio.MaxWavValue)
	v.SetDefault("audio.sampling_rate", c.Audio.SamplingRate)
	v.SetDefault("audio.load_mel_from_disk", c.Audio.LoadMelFromDisk)
	v.SetDefault("audio.filter_length", c.Audio.FilterLength)
	v.SetDefault("audio.hop_length", c.Audio.HopLength)
	v.SetDefault("audio.win_length", c.Audio.WinLength)
	v.SetDefault("audio.n_mel_channels", c.Audio.NMelChannels)
	v.SetDefault("audio.mel_fmin", c.Audio.MelFmin)
	v.SetDefault("audio.mel_fmax", c.Audio.MelFmax)
	v.SetDefault("text.cleaners", c.Text.Cleaners)
	v.SetDefault("text.encoder", c.Text.Encoder)
	v.SetDefault("text.sentencepiece_model", c.Text.SentencePieceModel)
	v.SetDefault("data.seed", c.Data.Seed)
	v.SetDefault("data.n_frames_per_step", c.Data.NFramesPerStep)
	v.SetDefault("data.batch_size", c.Data.BatchSize)
	v.SetDefault("data.workers", c.Data.Workers)
	v.SetDefault("data.delimiter", c.Data.Delimiter)
	v.SetDefault("data.drop_last", c.Data.DropLast)
	v.SetDefault("speaker.append_embedding", c.Speaker.AppendEmbedding)
	v.SetDefault("speaker.dimension", c.Speaker.Dimension)
	v.SetDefault("speaker.model_path", c.Speaker.ModelPath)
	v.SetDefault("speaker.input_name", c.Speaker.InputName)
	v.SetDefault("speaker.output_name", c.Speaker.OutputName)
	v.SetDefault("speaker.vad_mode", c.Speaker.VADMode)
	v.SetDefault("runtime.ort_library_path", c.Runtime.ORTLibraryPath)
	v.SetDefault("runtime.ort_api_version", c.Runtime.ORTAPIVersion)
	v.SetDefault("log_level", c.LogLevel)
}

// Validate reports every structurally invalid setting.
func (c Config) Validate() error {
	var errs []error

	if c.Audio.MaxWavValue <= 0 {
		errs = append(errs, fmt.Errorf("audio.max_wav_value must be > 0, got %g", c.Audio.MaxWavValue))
	}
	if c.Audio.SamplingRate < 1 {
		errs = append(errs, fmt.Errorf("audio.sampling_rate must be >= 1, got %d", c.Audio.SamplingRate))
	}
	if c.Audio.FilterLength < 1 || c.Audio.HopLength < 1 || c.Audio.WinLength < 1 {
		errs = append(errs, fmt.Errorf("audio filter/hop/win lengths must be >= 1, got %d/%d/%d",
			c.Audio.FilterLength, c.Audio.HopLength, c.Audio.WinLength))
	}
	if c.Audio.WinLength > c.Audio.FilterLength {
		errs = append(errs, fmt.Errorf("audio.win_length %d exceeds audio.filter_length %d", c.Audio.WinLength, c.Audio.FilterLength))
	}
	if c.Audio.NMelChannels < 1 {
		errs = append(errs, fmt.Errorf("audio.n_mel_channels must be >= 1, got %d", c.Audio.NMelChannels))
	}
	if c.Data.NFramesPerStep < 1 {
		errs = append(errs, fmt.Errorf("data.n_frames_per_step must be >= 1, got %d", c.Data.NFramesPerStep))
	}
	if c.Data.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("data.batch_size must be >= 1, got %d", c.Data.BatchSize))
	}
	if c.Data.Delimiter == "" {
		errs = append(errs, errors.New("data.delimiter must not be empty"))
	}
	if c.Speaker.Dimension < 1 {
		errs = append(errs, fmt.Errorf("speaker.dimension must be >= 1, got %d", c.Speaker.Dimension))
	}
	if c.Speaker.VADMode < 0 || c.Speaker.VADMode > 3 {
		errs = append(errs, fmt.Errorf("speaker.vad_mode must be in [0, 3], got %d", c.Speaker.VADMode))
	}

	enc, err := NormalizeEncoder(c.Text.Encoder)
	if err != nil {
		errs = append(errs, err)
	} else if enc == EncoderSentencePiece && c.Text.SentencePieceModel == "" {
		errs = append(errs, errors.New("text.sentencepiece_model is required for the sentencepiece encoder"))
	}

	return errors.Join(errs...)
}
