// Package api handles incoming HTTP requests and routing. It is a thin
// adapter: handlers pull path parameters and bodies out of the request, call
// the hosting-agnostic todo.Service and write its Result as JSON.
package api
