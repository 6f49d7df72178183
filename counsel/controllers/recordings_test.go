package controllers

import (
	"context"
	"strings"
	"testing"

	"counsel/counsel/types"
	"counsel/counsel/utils/apperrors"
	"counsel/counsel/utils/logging"
)

func TestSummarizeRecordingChatLogOnly(t *testing.T) {
	logging.InitLogger()
	f := &fakeLLM{summary: "a short digest"}
	ctrl := NewRecordingController(nil, f)

	resp, err := ctrl.SummarizeRecording(context.Background(), "", nil, []types.ChatLogEntry{
		{From: "user", Text: "I am nervous about tomorrow"},
		{From: "counselor", Text: "what is happening tomorrow?"},
		{From: "user", Text: ""}, // blank entries are dropped
	})
	if err != nil {
		t.Fatalf("SummarizeRecording failed: %v", err)
	}
	if resp.Summary != "a short digest" {
		t.Errorf("unexpected summary: %q", resp.Summary)
	}
	if resp.Transcript != "" {
		t.Errorf("no audio means no transcript, got %q", resp.Transcript)
	}
	if len(resp.MsgData) != 3 {
		t.Errorf("chat log must be echoed back untouched, got %d entries", len(resp.MsgData))
	}
	if f.summarizeCalls != 1 {
		t.Errorf("expected one summarize call, got %d", f.summarizeCalls)
	}
	if !strings.HasPrefix(f.lastConversation, "[chat log]\n") {
		t.Errorf("chat log block must keep its header without a transcript, got %q", f.lastConversation)
	}
}

func TestSummarizeRecordingWithAudio(t *testing.T) {
	logging.InitLogger()
	f := &fakeLLM{summary: "a short digest", transcript: "hello from the recording"}
	ctrl := NewRecordingController(nil, f)

	resp, err := ctrl.SummarizeRecording(context.Background(), "session.webm", []byte("fake-bytes"), nil)
	if err != nil {
		t.Fatalf("SummarizeRecording failed: %v", err)
	}
	if resp.Transcript != "hello from the recording" {
		t.Errorf("transcript not surfaced: %q", resp.Transcript)
	}
	if resp.RecordingKey != "" {
		t.Errorf("no store configured, key must be empty, got %q", resp.RecordingKey)
	}
}

func TestSummarizeRecordingFramesChatLogConsistently(t *testing.T) {
	logging.InitLogger()
	f := &fakeLLM{summary: "a short digest", transcript: "spoken words"}
	ctrl := NewRecordingController(nil, f)
	chatLog := []types.ChatLogEntry{{From: "user", Text: "hello"}}

	_, err := ctrl.SummarizeRecording(context.Background(), "session.webm", []byte("fake-bytes"), chatLog)
	if err != nil {
		t.Fatalf("SummarizeRecording failed: %v", err)
	}
	withAudio := f.lastConversation

	_, err = ctrl.SummarizeRecording(context.Background(), "", nil, chatLog)
	if err != nil {
		t.Fatalf("SummarizeRecording failed: %v", err)
	}
	chatOnly := f.lastConversation

	if withAudio != "spoken words\n\n"+chatOnly {
		t.Errorf("chat log framed differently with and without audio:\n%q\n%q", withAudio, chatOnly)
	}
}

func TestFetchRecordingValidation(t *testing.T) {
	logging.InitLogger()
	ctrl := NewRecordingController(nil, &fakeLLM{})

	_, _, err := ctrl.FetchRecording(context.Background(), "  ")
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Errorf("expected invalid_input for blank key, got %v", err)
	}

	_, _, err = ctrl.FetchRecording(context.Background(), "recordings/2026/01/01/x.webm")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("expected not_found without an archive, got %v", err)
	}
}

func TestSummarizeRecordingNothingRecognized(t *testing.T) {
	logging.InitLogger()
	f := &fakeLLM{}
	ctrl := NewRecordingController(nil, f)

	resp, err := ctrl.SummarizeRecording(context.Background(), "", nil, nil)
	if err != nil {
		t.Fatalf("SummarizeRecording failed: %v", err)
	}
	if resp.Summary != noContentSummary {
		t.Errorf("expected placeholder summary, got %q", resp.Summary)
	}
	if f.summarizeCalls != 0 {
		t.Errorf("summarize must not be called with no content")
	}
}

func TestSummarizeText(t *testing.T) {
	logging.InitLogger()
	f := &fakeLLM{summary: "a short digest"}
	ctrl := NewRecordingController(nil, f)

	resp, err := ctrl.SummarizeText(context.Background(), "a long conversation body")
	if err != nil {
		t.Fatalf("SummarizeText failed: %v", err)
	}
	if resp.Summary != "a short digest" || resp.Transcript != "a long conversation body" {
		t.Errorf("unexpected response: %#v", resp)
	}

	_, err = ctrl.SummarizeText(context.Background(), "   ")
	if apperrors.KindOf(err) != apperrors.KindInvalidInput {
		t.Errorf("expected invalid_input for blank text, got %v", err)
	}
}
