// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the engine serving the gallery under /api.
//
// Inputs:
//   - serviceName: The name HTTP spans are reported under.
//   - gallery: The photo handlers.
//
// Outputs:
//   - *gin.Engine: Ready to be used as an http.Handler.
func NewRouter(serviceName string, gallery *Gallery) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	apiGroup := r.Group("/api")
	{
		Health(apiGroup)
		gallery.Register(apiGroup)
	}
	r.NoRoute(NotFound)
	return r
}
