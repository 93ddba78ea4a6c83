package v1

import (
	"github.com/admiralbulldogtv/echotts/src/global"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func Api(ctx global.Context, app fiber.Router) {
	Voices(ctx, app.Group("/voices"))

	app.Post("/clone", Clone(ctx))
	app.Post("/clone/youtube", CloneYouTube(ctx))

	app.Post("/synthesize", Synthesize(ctx))
	app.Post("/synthesize/stream", SynthesizeStream(ctx))

	app.Get("/youtube/search", Search(ctx))
}
