package renders

import (
	"testing"

	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/Surya-blippi/Livio-sub001/tasks"
)

func TestValidateTopicRequest(t *testing.T) {
	h := &Handler{}

	scenes, queue, err := h.validate(&CreateRenderRequest{
		Topic:       "the history of coffee",
		FaceClipURL: "https://cdn.example.com/avatar.mp4",
	})
	if err != nil {
		t.Fatal(err)
	}
	if queue != tasks.QueueRenderPlan {
		t.Fatalf("topic request routed to %q, want %q", queue, tasks.QueueRenderPlan)
	}
	if scenes != nil {
		t.Fatalf("topic request should carry no scenes yet, got %v", scenes)
	}
}

func TestValidateTopicRequiresFaceClip(t *testing.T) {
	h := &Handler{}
	if _, _, err := h.validate(&CreateRenderRequest{Topic: "anything"}); err == nil {
		t.Fatal("expected error for topic request without face_clip_url")
	}
}

func TestValidateSceneRequest(t *testing.T) {
	h := &Handler{}

	scenes, queue, err := h.validate(&CreateRenderRequest{
		Script: "hello world this is a test",
		Scenes: []SceneRequest{
			{Text: "hello world", Type: models.SceneTypeFace, AssetURL: "https://cdn.example.com/f.mp4"},
			{Text: "this is a test", AssetURL: "https://cdn.example.com/a.jpg"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if queue != tasks.QueueRenderSubmit {
		t.Fatalf("scene request routed to %q, want %q", queue, tasks.QueueRenderSubmit)
	}
	if len(scenes) != 2 {
		t.Fatalf("got %d scenes, want 2", len(scenes))
	}
	if scenes[1].Type != models.SceneTypeAsset {
		t.Fatalf("unknown scene type not normalized to asset: %q", scenes[1].Type)
	}
}

func TestValidateSceneRequestFallsBackToFaceClip(t *testing.T) {
	h := &Handler{}

	scenes, _, err := h.validate(&CreateRenderRequest{
		Script:      "hello world",
		FaceClipURL: "https://cdn.example.com/f.mp4",
		Scenes: []SceneRequest{
			{Text: "hello world", Type: models.SceneTypeFace},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if scenes[0].AssetURL != "https://cdn.example.com/f.mp4" {
		t.Fatalf("face scene did not inherit face_clip_url: %q", scenes[0].AssetURL)
	}
}

func TestValidateRejectsAmbiguousRequests(t *testing.T) {
	h := &Handler{}

	cases := []CreateRenderRequest{
		// neither topic nor scenes
		{},
		// both topic and scenes
		{Topic: "x", Scenes: []SceneRequest{{Text: "y", AssetURL: "u"}}, FaceClipURL: "f"},
		// scenes without script
		{Scenes: []SceneRequest{{Text: "y", AssetURL: "u"}}},
		// asset scene without URL
		{Script: "s", Scenes: []SceneRequest{{Text: "y"}}},
	}
	for i, req := range cases {
		if _, _, err := h.validate(&req); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestRequestHashStableAndUserScoped(t *testing.T) {
	req := &CreateRenderRequest{Topic: "coffee", FaceClipURL: "https://cdn.example.com/f.mp4"}

	if requestHash(1, req) != requestHash(1, req) {
		t.Fatal("identical requests hash differently")
	}
	if requestHash(1, req) == requestHash(2, req) {
		t.Fatal("different users share a request hash")
	}
	other := &CreateRenderRequest{Topic: "tea", FaceClipURL: "https://cdn.example.com/f.mp4"}
	if requestHash(1, req) == requestHash(1, other) {
		t.Fatal("different requests share a hash")
	}
}
