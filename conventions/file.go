// Copyright 2025 The Nancy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conventions

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/nancyfx/nancy"
)

// FileResponse serves a file that lies below a safe path. The response
// carries Content-Length, Last-Modified and an ETag derived from the
// modification time and size, so the engine can answer conditional
// requests with 304. mime may be nil.
func FileResponse(safe *SafePaths, name string, mime *MimeTypes, extraRoots ...string) (*nancy.Response, error) {
	f, err := safe.Open(name, extraRoots...)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", name)
	}

	if mime == nil {
		mime = NewMimeTypes(nil)
	}
	open := func() (io.ReadCloser, error) { return safe.Open(name, extraRoots...) }

	resp := nancy.Stream(mime.Detect(name, open), open).
		WithHeader("Content-Length", strconv.FormatInt(info.Size(), 10)).
		WithLastModified(info.ModTime()).
		WithETag(fmt.Sprintf("%x-%x", info.ModTime().Unix(), info.Size()))
	resp.StatusCode = http.StatusOK
	return resp, nil
}
