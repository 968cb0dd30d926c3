package speech

import (
	"context"
	"strings"

	speechapi "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// GoogleRecognizer streams audio to Cloud Speech-to-Text with interim results.
type GoogleRecognizer struct {
	client   *speechapi.Client
	language string
	log      logrus.FieldLogger
}

// NewGoogleRecognizer dials Cloud Speech-to-Text.
func NewGoogleRecognizer(ctx context.Context, language string, log logrus.FieldLogger, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	client, err := speechapi.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if language == "" {
		language = "en-US"
	}
	return &GoogleRecognizer{client: client, language: language, log: log}, nil
}

// Close closes the underlying client.
func (g *GoogleRecognizer) Close() error { return g.client.Close() }

// Open implements Recognizer. Containers the API cannot decode, such as video
// recordings, get a silent stream so the recording itself is unaffected.
func (g *GoogleRecognizer) Open(ctx context.Context, mimeType string) (Stream, error) {
	encoding, rate, ok := encodingFor(mimeType)
	if !ok {
		g.log.WithField("mimeType", mimeType).Info("live captions unavailable for this media type")
		return newSilentStream(), nil
	}

	stream, err := g.client.StreamingRecognize(ctx)
	if err != nil {
		return nil, err
	}

	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:                   encoding,
					SampleRateHertz:            rate,
					LanguageCode:               g.language,
					EnableAutomaticPunctuation: true,
				},
				InterimResults: true,
			},
		},
	})
	if err != nil {
		_ = stream.CloseSend()
		return nil, err
	}

	return &googleStream{stream: stream}, nil
}

func encodingFor(mimeType string) (speechpb.RecognitionConfig_AudioEncoding, int32, bool) {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.HasPrefix(mime, "audio/wav"), strings.HasPrefix(mime, "audio/x-wav"), strings.HasPrefix(mime, "audio/l16"):
		return speechpb.RecognitionConfig_LINEAR16, 16000, true
	case strings.HasPrefix(mime, "audio/webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS, 48000, true
	case strings.HasPrefix(mime, "audio/ogg"):
		return speechpb.RecognitionConfig_OGG_OPUS, 48000, true
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, 0, false
	}
}

type googleStream struct {
	stream speechpb.Speech_StreamingRecognizeClient
}

func (s *googleStream) Send(chunk []byte) error {
	return s.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: chunk},
	})
}

func (s *googleStream) Recv() ([]Segment, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return nil, err
	}
	if resp.Error != nil && resp.Error.Code != 0 {
		return nil, status.ErrorProto(resp.Error)
	}

	segments := make([]Segment, 0, len(resp.Results))
	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		segments = append(segments, Segment{
			Text:  result.Alternatives[0].Transcript,
			Final: result.IsFinal,
		})
	}
	return segments, nil
}

func (s *googleStream) CloseSend() error { return s.stream.CloseSend() }
