package config

// Settings keys read by the pipeline.
const (
	KeyHost            = "host"
	KeyScheme          = "scheme"
	KeyTheme           = "theme"
	KeyTitle           = "title"
	KeyPageLimit       = "page_limit"
	KeyPageOrder       = "page_order"
	KeyIndexType       = "index_type"
	KeyLazyloadImages  = "lazyload_images"
	KeyHighlightCode   = "highlight_code"
	KeyCodeStyle       = "code_style"
	KeyMagicReference  = "magic_reference"
	KeyPublishFuture   = "publish_future"
	KeyEmbedTimeout    = "embed_timeout"
	KeyEmbedRetries    = "embed_retries"
	KeyOutputDir       = "output_dir"
	KeyInputDir        = "input_dir"
	KeyProjectDir      = "project_dir"
	KeyMarkdown        = "markdown"
	KeyDescriptionSize = "description_size"
)

// Defaults returns the values the global scope starts with.
func Defaults() map[string]any {
	return map[string]any{
		KeyScheme:          "",
		KeyPageLimit:       10,
		KeyPageOrder:       "newest",
		KeyIndexType:       "post",
		KeyLazyloadImages:  true,
		KeyHighlightCode:   false,
		KeyCodeStyle:       "github",
		KeyMagicReference:  "n",
		KeyPublishFuture:   false,
		KeyEmbedTimeout:    "10s",
		KeyEmbedRetries:    2,
		KeyDescriptionSize: 200,
	}
}
