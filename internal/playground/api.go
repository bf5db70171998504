// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package playground

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/probechain/probeplay/internal/snippets"
	"github.com/probechain/probeplay/lang/engine"
)

// Version is reported by GET /api/version.
const Version = "0.1.0"

// RunRequest is the body of POST /api/runcode.
type RunRequest struct {
	Code string `json:"code"`
}

// RunResult describes one run. Exactly one of FinalResult and Exception is set.
type RunResult struct {
	Output      []string `json:"output"`
	FinalResult string   `json:"final_result,omitempty"`
	Exception   string   `json:"exception,omitempty"`
	Stage       string   `json:"stage,omitempty"`
	ID          string   `json:"id"`
}

// RunResponse is the body returned by POST /api/runcode. Success reports that
// the request was handled, not that the program ran without error.
type RunResponse struct {
	Success   string    `json:"success"`
	IntResult RunResult `json:"int_result"`
}

// SnippetRequest is the body of POST /api/snippets.
type SnippetRequest struct {
	Code string `json:"code"`
}

// SnippetResponse is returned when storing or fetching a snippet.
type SnippetResponse struct {
	ID   string `json:"id"`
	Code string `json:"code,omitempty"`
}

// VersionResponse is the body of GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeBody reads a JSON request body no larger than the configured limit.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleRunCode(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req RunRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id := uuid.New().String()
	start := time.Now()

	res := s.eng.Run(req.Code)
	result := RunResult{
		Output:      res.Output,
		FinalResult: res.Status,
		Exception:   res.Message(),
		Stage:       engine.Stage(res.Err),
		ID:          id,
	}
	if result.Output == nil {
		result.Output = []string{}
	}
	s.log.Info("Ran program", "id", id, "lines", len(res.Output), "ok", res.Success(), "elapsed", time.Since(start))

	writeJSON(w, http.StatusOK, RunResponse{Success: "success", IntResult: result})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: Version})
}

func (s *Server) handlePutSnippet(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req SnippetRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	id, err := s.store.Put(req.Code)
	switch {
	case errors.Is(err, snippets.ErrEmpty):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error("Failed to store snippet", "err", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeJSON(w, http.StatusCreated, SnippetResponse{ID: id})
}

func (s *Server) handleGetSnippet(w http.ResponseWriter, _ *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	code, err := s.store.Get(id)
	switch {
	case errors.Is(err, snippets.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		s.log.Error("Failed to load snippet", "id", id, "err", err)
		writeError(w, http.StatusInternalServerError, "storage failure")
		return
	}
	writeJSON(w, http.StatusOK, SnippetResponse{ID: id, Code: code})
}
