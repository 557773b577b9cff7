package model

// SourceKind tags which variant of VideoSource is populated.
type SourceKind string

const (
	SourceUnknown         SourceKind = ""
	SourceLocalFile       SourceKind = "local_file"
	SourceRemoteReference SourceKind = "remote_reference"
)

// LocalFile is a video uploaded as raw bytes.
type LocalFile struct {
	Bytes    []byte
	MimeType string
	Filename string
}

// RemoteReference is a video hosted elsewhere, e.g. a YouTube link.
type RemoteReference struct {
	URL string
}

// VideoSource holds exactly one of LocalFile or RemoteReference. The zero value
// holds neither and is rejected by the pipeline.
type VideoSource struct {
	kind   SourceKind
	local  LocalFile
	remote RemoteReference
}

// NewLocalFileSource copies data so later writes by the caller cannot leak into the run.
func NewLocalFileSource(data []byte, mimeType, filename string) VideoSource {
	return VideoSource{
		kind: SourceLocalFile,
		local: LocalFile{
			Bytes:    append([]byte(nil), data...),
			MimeType: mimeType,
			Filename: filename,
		},
	}
}

func NewRemoteReferenceSource(url string) VideoSource {
	return VideoSource{
		kind:   SourceRemoteReference,
		remote: RemoteReference{URL: url},
	}
}

func (s VideoSource) Kind() SourceKind {
	return s.kind
}

// LocalFile returns the local variant. The returned bytes must be treated as read-only.
func (s VideoSource) LocalFile() (LocalFile, bool) {
	return s.local, s.kind == SourceLocalFile
}

func (s VideoSource) RemoteReference() (RemoteReference, bool) {
	return s.remote, s.kind == SourceRemoteReference
}

// Describe returns a short label for logs without dumping the payload.
func (s VideoSource) Describe() string {
	switch s.kind {
	case SourceLocalFile:
		return s.local.Filename
	case SourceRemoteReference:
		return s.remote.URL
	default:
		return "<empty source>"
	}
}
