// Package testutil provides testing utilities for the upload-ai application.
//
// This package contains three main components:
//
// 1. Pipeline mocks (mock_pipeline.go):
//   - MockTranscoder: testify mock of pipeline.Transcoder
//   - MockCoordinator: testify mock of api.Coordinator
//   - BlockUntilCancelled: Run function that parks a mocked call until its context ends
//
// 2. Service mocks (mock_services.go):
//   - MockRunService: testify mock of the HTTP layer's run service
//
// 3. Test Data Fixtures (fixtures.go):
//   - SampleMP4 / SampleMP3 byte payloads
//   - LocalSource, RemoteSource and SampleArtifact constructors
//
// # Usage Examples
//
//	func TestUploadFails(t *testing.T) {
//	    transcoder := testutil.NewMockTranscoder(t)
//	    transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything).
//	        Return(testutil.SampleArtifact(), nil)
//
//	    coordinator := testutil.NewMockCoordinator(t)
//	    coordinator.On("UploadAudio", mock.Anything, mock.Anything).
//	        Return(model.VideoID(""), errors.New("boom"))
//
//	    machine := pipeline.NewMachine(transcoder, coordinator, nil, nil)
//	    run := machine.Submit(testutil.LocalSource(), testutil.SamplePrompt)
//	    // ... wait for the run and assert on its snapshot
//	}
//
// Blocking a call until the run is cancelled:
//
//	coordinator.On("UploadAudio", mock.Anything, mock.Anything).
//	    Run(testutil.BlockUntilCancelled).
//	    Return(model.VideoID(""), context.Canceled)
package testutil
