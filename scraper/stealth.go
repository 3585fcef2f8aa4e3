package scraper

// antiDetectionJS runs before any page script. It hides the automation
// flag and fills the properties headless Chromium leaves empty.
const antiDetectionJS = `(() => {
	Object.defineProperty(navigator, 'webdriver', { get: () => false });
	Object.defineProperty(navigator, 'languages', { get: () => ['en-US', 'en'] });
	Object.defineProperty(navigator, 'plugins', { get: () => [1, 2, 3, 4, 5] });
	window.chrome = window.chrome || { runtime: {} };
})();`

// removeOverlaysJS removes fixed or sticky layers with a high z-index and
// common consent/popup containers, then restores page scrolling.
const removeOverlaysJS = `() => {
	for (const el of document.querySelectorAll('*')) {
		const style = window.getComputedStyle(el);
		if (style.position === 'fixed' || style.position === 'sticky') {
			const z = parseInt(style.zIndex, 10);
			if (z >= 900) {
				el.remove();
			}
		}
	}
	const selectors = [
		'[class*="cookie"]', '[class*="consent"]', '[class*="overlay"]',
		'[id*="cookie"]', '[id*="consent"]', '[id*="overlay"]',
		'[class*="popup"]', '[id*="popup"]',
		'[class*="gdpr"]', '[id*="gdpr"]',
	];
	for (const sel of selectors) {
		document.querySelectorAll(sel).forEach(el => {
			const style = window.getComputedStyle(el);
			if (style.position === 'fixed' || style.position === 'sticky' || style.position === 'absolute') {
				el.remove();
			}
		});
	}
	document.documentElement.style.overflow = '';
	if (document.body) document.body.style.overflow = '';
}`

const (
	scrollBottomJS = `() => { window.scrollTo(0, document.body ? document.body.scrollHeight : 0); }`
	scrollStepJS   = `() => { window.scrollBy(0, window.innerHeight * 0.8); }`
	pageHeightJS   = `() => document.body ? document.body.scrollHeight : 0`
)
