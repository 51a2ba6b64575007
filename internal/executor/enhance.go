package executor

import "strings"

// performanceCSS is the fixed block appended to stylesheets on the fallback
// path. It is additive only so every original rule keeps its meaning.
const performanceCSS = `
/* Generated performance enhancements */
* {
  box-sizing: border-box;
}

html {
  scroll-behavior: smooth;
}

img {
  max-width: 100%;
  height: auto;
}

.container {
  display: grid;
  gap: 1rem;
  max-width: 1200px;
  margin: 0 auto;
  padding: 0 1rem;
}

@media (prefers-reduced-motion: no-preference) {
  .animate {
    transition: all 0.3s ease-in-out;
  }
}

@media (prefers-reduced-motion: reduce) {
  * {
    animation: none;
    transition: none;
  }
}

a:focus,
button:focus {
  outline: 2px solid currentColor;
  outline-offset: 2px;
}

@media (prefers-color-scheme: dark) {
  :root {
    --bg-color: #1a1a1a;
    --text-color: #ffffff;
  }
}
`

// metaTags is the fixed block spliced into HTML heads on the fallback path.
const metaTags = `
    <!-- Generated SEO and performance meta tags -->
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta name="description" content="Fast, accessible landing page built and maintained by an automated pipeline">
    <meta name="keywords" content="landing page, performance, accessibility, automation">

    <!-- Performance optimizations -->
    <link rel="preconnect" href="https://fonts.googleapis.com">
    <link rel="dns-prefetch" href="https://cdn.jsdelivr.net">

    <!-- Open Graph meta tags -->
    <meta property="og:type" content="website">

    <!-- Twitter Card meta tags -->
    <meta name="twitter:card" content="summary_large_image">
`

// EnhanceCSS appends the fixed performance block to a stylesheet.
func EnhanceCSS(original string) string {
	return original + "\n" + performanceCSS
}

// EnhanceHTML splices the meta block immediately after the first literal
// <head> tag. The transform is textual, not DOM-aware: a document without
// a literal <head> substring passes through unmodified.
func EnhanceHTML(original string) string {
	return strings.Replace(original, "<head>", "<head>"+metaTags, 1)
}
