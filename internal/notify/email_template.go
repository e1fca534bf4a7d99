package notify

const emailHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{displayName .Alert.Name}}</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #1f3b2d 0%, #2f3b37 100%);
      color: #ffffff;
    }

    .horse {
      font-size: 24px;
      font-weight: 700;
      letter-spacing: 0.03em;
      margin-bottom: 4px;
    }

    .badge {
      display: inline-block;
      margin-top: 8px;
      padding: 4px 10px;
      font-size: 11px;
      font-weight: 600;
      border-radius: 4px;
      background: #16a34a;
      color: #ffffff;
      text-transform: uppercase;
      letter-spacing: 0.05em;
    }

    .badge.removed {
      background: #dc2626;
    }

    .badge.entry {
      background: #2563eb;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #f3f4f6;
    }

    .section-title {
      font-size: 11px;
      font-weight: 700;
      color: #6b7280;
      text-transform: uppercase;
      letter-spacing: 0.1em;
      margin-bottom: 12px;
    }

    .listing {
      background: #f9fafb;
      border-left: 3px solid #1f3b2d;
      padding: 12px 16px;
      font-size: 14px;
      font-family: Menlo, Consolas, monospace;
      color: #374151;
      border-radius: 0 4px 4px 0;
    }

    .meta {
      font-size: 13px;
      color: #6b7280;
      margin-top: 8px;
    }

    .footer {
      padding: 16px 24px;
      font-size: 12px;
      color: #9ca3af;
      text-align: center;
      background: #f9fafb;
      border-top: 1px solid #f3f4f6;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <div class="horse">{{displayName .Alert.Name}}</div>
      <span class="badge {{.Alert.Kind}}">{{.Alert.Kind}}</span>
    </div>

    <div class="section">
      <div class="section-title">Listing</div>
      <div class="listing">{{.Alert.Raw}}</div>
      <div class="meta">
        Source: {{.Alert.Source}}{{if gt .Alert.Page 0}} (page {{.Alert.Page}}){{end}}
        {{if not .Alert.DetectedAt.IsZero}}&middot; {{.Alert.DetectedAt.Format "02 Jan 2006 3:04 PM"}}{{end}}
      </div>
    </div>

    {{if .Brief}}
    <div class="section">
      <div class="section-title">Summary</div>
      <div>{{.Brief}}</div>
    </div>
    {{end}}

    <div class="footer">
      {{headline .Alert}}
    </div>
  </div>
</body>
</html>`
