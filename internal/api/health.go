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

// Package api holds the gallery's HTTP surface. Handlers only translate
// between HTTP and the core services; every status code decision is made here.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Status is the body of health, error and not-found responses.
type Status struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Details string `json:"details"`
}

func abort(c *gin.Context, code int, details string) {
	c.AbortWithStatusJSON(code, Status{Status: code, Message: http.StatusText(code), Details: details})
}

// Health registers the API availability check at the root of r.
func Health(r *gin.RouterGroup) {
	r.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, Status{Status: http.StatusOK, Message: "OK", Details: "API available"})
	})
}

// NotFound answers every unmatched route.
func NotFound(c *gin.Context) {
	abort(c, http.StatusNotFound, "Page not found.")
}
