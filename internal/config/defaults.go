// SPDX-License-Identifier: EPL-2.0

package config

import "time"

const (
	defaultSampleRate        = 16000
	defaultChannels          = 2
	defaultRawBytes          = 65536
	defaultDecodedBytes      = 65536
	defaultResampledBytes    = 32768
	defaultMixerInputBytes   = 32768
	defaultMixerOutputBytes  = 8192
	defaultTransferBytes     = 8192
	defaultMixerChunkBytes   = 4096
	defaultSpeakerChunkBytes = 4096
	defaultPollInterval      = 10 * time.Millisecond
	defaultTickInterval      = 10 * time.Millisecond
	defaultStopTimeout       = 2 * time.Second
	defaultQueueSize         = 10
	defaultDuckRatio         = 0.3
	defaultDuckFade          = 50 * time.Millisecond
	defaultVolume            = 1.0
	defaultVolumeStep        = 0.05
	defaultHTTPTimeout       = 30 * time.Second
	defaultUserAgent         = "duckpipe/1.0"
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
)

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Output: Output{
			SampleRate: defaultSampleRate,
			Channels:   defaultChannels,
		},
		Buffers: Buffers{
			RawBytes:          defaultRawBytes,
			DecodedBytes:      defaultDecodedBytes,
			ResampledBytes:    defaultResampledBytes,
			MixerInputBytes:   defaultMixerInputBytes,
			MixerOutputBytes:  defaultMixerOutputBytes,
			TransferBytes:     defaultTransferBytes,
			MixerChunkBytes:   defaultMixerChunkBytes,
			SpeakerChunkBytes: defaultSpeakerChunkBytes,
		},
		Timing: Timing{
			PollInterval: Duration(defaultPollInterval),
			TickInterval: Duration(defaultTickInterval),
			StopTimeout:  Duration(defaultStopTimeout),
			EventQueue:   defaultQueueSize,
			CommandQueue: defaultQueueSize,
		},
		Ducking: Ducking{
			Auto:  true,
			Ratio: defaultDuckRatio,
			Fade:  Duration(defaultDuckFade),
		},
		Volume: Volume{
			Initial: defaultVolume,
			Step:    defaultVolumeStep,
		},
		HTTP: HTTP{
			Timeout:   Duration(defaultHTTPTimeout),
			UserAgent: defaultUserAgent,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}
