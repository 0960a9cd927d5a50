// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"net/http"

	requestutil "github.com/taibuivan/gatekeeper/internal/platform/request"
	"github.com/taibuivan/gatekeeper/internal/platform/respond"
	"github.com/taibuivan/gatekeeper/internal/workspace"
)

// workspaces runs handler bodies against the caller's workspace.
type workspaces struct {
	registry *workspace.Registry
}

// run locks the request's workspace and calls fn. fn writes the success
// response; a returned error is rendered here.
func (runner workspaces) run(writer http.ResponseWriter, request *http.Request, fn func(current *workspace.Workspace) error) {
	workspaceID, err := requestutil.RequiredWorkspaceID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := runner.registry.Do(workspaceID, fn); err != nil {
		respond.Error(writer, request, err)
	}
}
