// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"bytes"
	"fmt"
	"mime"
	"path"
	"strings"
)

// ContainerType identifies the container format of a raw byte stream.
type ContainerType int

const (
	ContainerNone ContainerType = iota
	ContainerWAV
	ContainerMP3
	ContainerFLAC
	ContainerOgg
	ContainerAIFF
)

// SniffLen is the number of leading bytes SniffContainer looks at.
const SniffLen = 12

var containerNames = map[ContainerType]string{
	ContainerNone: "none",
	ContainerWAV:  "wav",
	ContainerMP3:  "mp3",
	ContainerFLAC: "flac",
	ContainerOgg:  "ogg",
	ContainerAIFF: "aiff",
}

func (ct ContainerType) String() string {
	if name, ok := containerNames[ct]; ok {
		return name
	}

	return fmt.Sprintf("ContainerType(%d)", int(ct))
}

// ParseContainer maps a user supplied name ("wav", "MP3", ".flac") to a
// container type.
func ParseContainer(name string) (ContainerType, error) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	switch name {
	case "", "none", "auto":
		return ContainerNone, nil
	case "wav", "wave":
		return ContainerWAV, nil
	case "mp3", "mpeg":
		return ContainerMP3, nil
	case "flac":
		return ContainerFLAC, nil
	case "ogg", "oga", "vorbis":
		return ContainerOgg, nil
	case "aiff", "aif":
		return ContainerAIFF, nil
	}

	return ContainerNone, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// ContainerFromPath guesses the container from a file name or URL path
// extension. Query strings are ignored.
func ContainerFromPath(p string) ContainerType {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}

	ext := path.Ext(p)
	if ext == "" {
		return ContainerNone
	}

	ct, err := ParseContainer(ext)
	if err != nil {
		return ContainerNone
	}

	return ct
}

// ContainerFromMIME maps an HTTP Content-Type to a container.
func ContainerFromMIME(contentType string) ContainerType {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ContainerNone
	}

	switch mt {
	case "audio/wav", "audio/wave", "audio/x-wav", "audio/vnd.wave":
		return ContainerWAV
	case "audio/mpeg", "audio/mp3":
		return ContainerMP3
	case "audio/flac", "audio/x-flac":
		return ContainerFLAC
	case "audio/ogg", "application/ogg", "audio/vorbis":
		return ContainerOgg
	case "audio/aiff", "audio/x-aiff":
		return ContainerAIFF
	}

	return ContainerNone
}

// SniffContainer inspects the first bytes of a stream for a known magic
// number.
func SniffContainer(head []byte) ContainerType {
	switch {
	case len(head) >= 12 && bytes.HasPrefix(head, []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return ContainerWAV
	case len(head) >= 12 && bytes.HasPrefix(head, []byte("FORM")) &&
		(bytes.Equal(head[8:12], []byte("AIFF")) || bytes.Equal(head[8:12], []byte("AIFC"))):
		return ContainerAIFF
	case bytes.HasPrefix(head, []byte("fLaC")):
		return ContainerFLAC
	case bytes.HasPrefix(head, []byte("OggS")):
		return ContainerOgg
	case bytes.HasPrefix(head, []byte("ID3")):
		return ContainerMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		// MPEG audio frame sync
		return ContainerMP3
	}

	return ContainerNone
}
