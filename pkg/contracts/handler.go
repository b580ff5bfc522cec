package contracts

import "github.com/julienschmidt/httprouter"

// Handler is implemented by every feature package that exposes HTTP routes.
type Handler interface {
	RegisterRoutes(router *httprouter.Router)
}
