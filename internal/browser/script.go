package browser

// extractScript walks the rendered DOM from document.body and returns a raw
// node tree plus traversal stats. An element that is hidden, zero-sized, or
// fully outside the viewport is pruned together with its whole subtree;
// interactivity is classified independently and never gates traversal.
// Per-node query failures are swallowed and treated as "not visible" /
// "not interactive" so one stale element cannot abort the capture.
const extractScript = `() => {
	const stats = { total: 0, kept: 0, pruned: 0 };
	const vw = window.innerWidth;
	const vh = window.innerHeight;

	const interactiveTags = ['a', 'button', 'input', 'select', 'textarea', 'details', 'audio', 'video'];
	const interactiveRoles = ['button', 'link', 'checkbox', 'menuitem', 'menuitemcheckbox',
		'menuitemradio', 'option', 'radio', 'searchbox', 'switch', 'tab'];

	function isVisible(el) {
		try {
			const style = window.getComputedStyle(el);
			return el.offsetWidth > 0 &&
				el.offsetHeight > 0 &&
				style.display !== 'none' &&
				style.visibility !== 'hidden' &&
				style.opacity !== '0';
		} catch (e) {
			return false;
		}
	}

	function isInViewport(el) {
		try {
			const rect = el.getBoundingClientRect();
			return rect.bottom >= 0 && rect.right >= 0 && rect.top <= vh && rect.left <= vw;
		} catch (e) {
			return false;
		}
	}

	function isInteractive(el) {
		try {
			const tag = el.tagName.toLowerCase();
			if (interactiveTags.includes(tag)) return true;

			const role = el.getAttribute('role');
			if (role && interactiveRoles.includes(role)) return true;

			if (el.onclick || el.onmousedown || el.onmouseup || el.onkeydown || el.onkeyup) return true;

			return window.getComputedStyle(el).cursor === 'pointer';
		} catch (e) {
			return false;
		}
	}

	function describe(el) {
		stats.total++;
		if (!isVisible(el) || !isInViewport(el)) {
			stats.pruned++;
			return null;
		}
		stats.kept++;

		const attrs = [];
		try {
			for (const a of el.attributes) {
				attrs.push({ name: a.name, value: a.value });
			}
		} catch (e) {}

		const node = {
			nodeName: el.tagName.toLowerCase(),
			textContent: el.textContent || '',
			innerText: el.innerText || '',
			attributes: attrs,
			children: [],
			isVisible: true,
			isInteractive: isInteractive(el)
		};

		for (const child of el.childNodes) {
			if (child.nodeType === Node.TEXT_NODE) {
				const text = child.textContent || '';
				if (text.trim().length > 0) {
					node.children.push({
						nodeName: '#text',
						textContent: text,
						innerText: '',
						attributes: [],
						children: [],
						isVisible: true,
						isInteractive: false
					});
				}
			} else if (child.nodeType === Node.ELEMENT_NODE) {
				const sub = describe(child);
				if (sub) node.children.push(sub);
			}
		}

		return node;
	}

	const body = document.body;
	return { tree: body ? describe(body) : null, stats: stats };
}`
