package ghcr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

const (
	defaultServiceBaseURLConstant           = "https://api.github.com"
	defaultPageSizeConstant                 = 30
	maximumPageSizeConstant                 = 100
	bearerTokenTemplateConstant             = "Bearer %s"
	authorizationHeaderNameConstant         = "Authorization"
	acceptHeaderNameConstant                = "Accept"
	acceptHeaderValueConstant               = "application/vnd.github+json"
	apiVersionHeaderNameConstant            = "X-GitHub-Api-Version"
	apiVersionHeaderValueConstant           = "2022-11-28"
	linkHeaderNameConstant                  = "Link"
	linkNextRelationConstant                = `rel="next"`
	linkSegmentSeparatorConstant            = ","
	linkPartSeparatorConstant               = ";"
	linkURLTrimCutsetConstant               = "<>"
	pageQueryParameterConstant              = "page"
	perPageQueryParameterConstant           = "per_page"
	packageTypeQueryParameterConstant       = "package_type"
	containerPackageTypeConstant            = "container"
	firstPageNumberConstant                 = 1
	softDeletedPackagePrefixConstant        = "deleted_"
	packagesListPathTemplateConstant        = "/%s/%s/packages"
	packageLookupPathTemplateConstant       = "/%s/%s/packages/container/%s"
	versionsPathSuffixConstant              = "/versions"
	httpSchemePrefixConstant                = "http://"
	httpsSchemePrefixConstant               = "https://"
	loggerRequiredMessageConstant           = "registry client requires a logger"
	requestCreationErrorTemplateConstant    = "unable to create %s request for %s: %w"
	requestExecutionErrorTemplateConstant   = "%s request for %s failed: %w"
	listFailureErrorTemplateConstant        = "list request for %s returned status %d: %s"
	packageLookupErrorTemplateConstant      = "package lookup for %s returned status %d: %s"
	deletionFailureErrorTemplateConstant    = "delete request for %s returned status %d: %s"
	responseDecodingErrorTemplateConstant   = "unable to decode response from %s: %w"
	packageNotFoundWarningMessageConstant   = "package does not exist, skipping"
	packageListedDebugMessageConstant       = "listed packages"
	versionsListedDebugMessageConstant      = "listed package versions"
	deletionRequestedDebugMessageConstant   = "issuing delete request"
	logFieldPackageNameConstant             = "package"
	logFieldOwnerConstant                   = "owner"
	logFieldPackageCountConstant            = "package_count"
	logFieldVersionCountConstant            = "version_count"
	logFieldRequestURLConstant              = "url"
)

// HTTPClient abstracts the transport used for GitHub Packages API calls.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// ClientConfiguration adjusts endpoint and paging behavior of the RegistryClient.
type ClientConfiguration struct {
	BaseURL  string
	PageSize int
}

// ListPackagesRequest describes a package listing or lookup operation.
type ListPackagesRequest struct {
	Token            string
	Owner            string
	OwnerType        OwnerType
	RepositoryFilter string
	PackageNames     []string
}

// RegistryClient executes GitHub Packages API operations.
type RegistryClient struct {
	logger     *zap.Logger
	httpClient HTTPClient
	baseURL    string
	pageSize   int
}

// NewRegistryClient validates collaborators and constructs a RegistryClient.
func NewRegistryClient(logger *zap.Logger, httpClient HTTPClient, configuration ClientConfiguration) (*RegistryClient, error) {
	if logger == nil {
		return nil, fmt.Errorf(loggerRequiredMessageConstant)
	}

	resolvedHTTPClient := httpClient
	if resolvedHTTPClient == nil {
		resolvedHTTPClient = &http.Client{}
	}

	resolvedBaseURL := strings.TrimRight(strings.TrimSpace(configuration.BaseURL), "/")
	if len(resolvedBaseURL) == 0 {
		resolvedBaseURL = defaultServiceBaseURLConstant
	}

	resolvedPageSize := configuration.PageSize
	if resolvedPageSize <= 0 {
		resolvedPageSize = defaultPageSizeConstant
	}
	if resolvedPageSize > maximumPageSizeConstant {
		resolvedPageSize = maximumPageSizeConstant
	}

	return &RegistryClient{
		logger:     logger,
		httpClient: resolvedHTTPClient,
		baseURL:    resolvedBaseURL,
		pageSize:   resolvedPageSize,
	}, nil
}

// ListPackages resolves the container packages selected by the request.
//
// Explicitly named packages are looked up one by one; a missing name is
// skipped with a warning rather than failing the run. Without names, every
// container package of the owner is listed across all pages. Soft-deleted
// packages leaked by the API are always excluded, and an optional repository
// filter keeps only packages linked to that repository.
func (client *RegistryClient) ListPackages(executionContext context.Context, request ListPackagesRequest) ([]Package, error) {
	var resolvedPackages []Package

	if len(request.PackageNames) > 0 {
		for _, packageName := range request.PackageNames {
			lookedUpPackage, found, lookupError := client.lookUpPackage(executionContext, request, packageName)
			if lookupError != nil {
				return nil, lookupError
			}
			if !found {
				continue
			}
			resolvedPackages = append(resolvedPackages, lookedUpPackage)
		}
	} else {
		listPath := fmt.Sprintf(packagesListPathTemplateConstant, request.OwnerType.PathSegment(), request.Owner)
		listQuery := url.Values{}
		listQuery.Set(packageTypeQueryParameterConstant, containerPackageTypeConstant)

		paginationError := client.collectPages(executionContext, request.Token, listPath, listQuery, func(pagePayload []byte) error {
			var pagePackages []Package
			if decodeError := json.Unmarshal(pagePayload, &pagePackages); decodeError != nil {
				return fmt.Errorf(responseDecodingErrorTemplateConstant, listPath, decodeError)
			}
			resolvedPackages = append(resolvedPackages, pagePackages...)
			return nil
		})
		if paginationError != nil {
			return nil, paginationError
		}
	}

	filteredPackages := filterPackages(resolvedPackages, request.RepositoryFilter)

	client.logger.Debug(
		packageListedDebugMessageConstant,
		zap.String(logFieldOwnerConstant, request.Owner),
		zap.Int(logFieldPackageCountConstant, len(filteredPackages)),
	)

	return filteredPackages, nil
}

// ListVersions fetches every version of the package across all pages.
func (client *RegistryClient) ListVersions(executionContext context.Context, token string, packageURL string) ([]PackageVersion, error) {
	versionsURL := packageURL + versionsPathSuffixConstant

	var collectedVersions []PackageVersion
	paginationError := client.collectPages(executionContext, token, versionsURL, url.Values{}, func(pagePayload []byte) error {
		var pageVersions []PackageVersion
		if decodeError := json.Unmarshal(pagePayload, &pageVersions); decodeError != nil {
			return fmt.Errorf(responseDecodingErrorTemplateConstant, versionsURL, decodeError)
		}
		collectedVersions = append(collectedVersions, pageVersions...)
		return nil
	})
	if paginationError != nil {
		return nil, paginationError
	}

	client.logger.Debug(
		versionsListedDebugMessageConstant,
		zap.String(logFieldRequestURLConstant, versionsURL),
		zap.Int(logFieldVersionCountConstant, len(collectedVersions)),
	)

	return collectedVersions, nil
}

// DeleteTarget issues a delete call against a package or version URL.
//
// A non-success status is returned as an error so the caller can aggregate
// failures without aborting the remaining deletions.
func (client *RegistryClient) DeleteTarget(executionContext context.Context, token string, targetURL string) error {
	client.logger.Debug(deletionRequestedDebugMessageConstant, zap.String(logFieldRequestURLConstant, targetURL))

	response, requestError := client.executeRequest(executionContext, http.MethodDelete, token, client.resolveURL(targetURL))
	if requestError != nil {
		return requestError
	}
	defer func() { _ = response.Body.Close() }()

	if !statusIndicatesSuccess(response.StatusCode) {
		responseBody, _ := io.ReadAll(response.Body)
		return fmt.Errorf(deletionFailureErrorTemplateConstant, targetURL, response.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	return nil
}

func (client *RegistryClient) lookUpPackage(executionContext context.Context, request ListPackagesRequest, packageName string) (Package, bool, error) {
	lookupPath := fmt.Sprintf(
		packageLookupPathTemplateConstant,
		request.OwnerType.PathSegment(),
		request.Owner,
		url.PathEscape(packageName),
	)

	response, requestError := client.executeRequest(executionContext, http.MethodGet, request.Token, client.resolveURL(lookupPath))
	if requestError != nil {
		return Package{}, false, requestError
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode == http.StatusNotFound {
		client.logger.Warn(packageNotFoundWarningMessageConstant, zap.String(logFieldPackageNameConstant, packageName))
		return Package{}, false, nil
	}

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return Package{}, false, fmt.Errorf(requestExecutionErrorTemplateConstant, http.MethodGet, lookupPath, readError)
	}

	if !statusIndicatesSuccess(response.StatusCode) {
		return Package{}, false, fmt.Errorf(packageLookupErrorTemplateConstant, packageName, response.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var lookedUpPackage Package
	if decodeError := json.Unmarshal(responseBody, &lookedUpPackage); decodeError != nil {
		return Package{}, false, fmt.Errorf(responseDecodingErrorTemplateConstant, lookupPath, decodeError)
	}

	return lookedUpPackage, true, nil
}

// collectPages fetches every page of a listing endpoint, following the Link
// header's next relation. Once a link-based URL is followed the page counter
// is no longer sent because the link already encodes the position; the loop
// terminates when a page supplies no next link.
func (client *RegistryClient) collectPages(executionContext context.Context, token string, listPath string, query url.Values, handlePage func(pagePayload []byte) error) error {
	requestURL := client.resolveURL(listPath)

	pageQuery := url.Values{}
	for queryKey, queryValues := range query {
		pageQuery[queryKey] = queryValues
	}
	pageQuery.Set(pageQueryParameterConstant, strconv.Itoa(firstPageNumberConstant))
	pageQuery.Set(perPageQueryParameterConstant, strconv.Itoa(client.pageSize))

	for {
		pagedURL := requestURL
		if len(pageQuery) > 0 {
			pagedURL = appendQuery(requestURL, pageQuery)
		}

		response, requestError := client.executeRequest(executionContext, http.MethodGet, token, pagedURL)
		if requestError != nil {
			return requestError
		}

		responseBody, readError := io.ReadAll(response.Body)
		_ = response.Body.Close()
		if readError != nil {
			return fmt.Errorf(requestExecutionErrorTemplateConstant, http.MethodGet, pagedURL, readError)
		}

		if !statusIndicatesSuccess(response.StatusCode) {
			return fmt.Errorf(listFailureErrorTemplateConstant, pagedURL, response.StatusCode, strings.TrimSpace(string(responseBody)))
		}

		if handleError := handlePage(responseBody); handleError != nil {
			return handleError
		}

		nextURL := parseNextLink(response.Header.Get(linkHeaderNameConstant))
		if len(nextURL) == 0 {
			return nil
		}

		requestURL = nextURL
		pageQuery = url.Values{}
	}
}

func (client *RegistryClient) executeRequest(executionContext context.Context, method string, token string, requestURL string) (*http.Response, error) {
	request, creationError := http.NewRequestWithContext(executionContext, method, requestURL, nil)
	if creationError != nil {
		return nil, fmt.Errorf(requestCreationErrorTemplateConstant, method, requestURL, creationError)
	}

	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(bearerTokenTemplateConstant, token))
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	request.Header.Set(apiVersionHeaderNameConstant, apiVersionHeaderValueConstant)

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		return nil, fmt.Errorf(requestExecutionErrorTemplateConstant, method, requestURL, executionError)
	}

	return response, nil
}

func (client *RegistryClient) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, httpSchemePrefixConstant) || strings.HasPrefix(pathOrURL, httpsSchemePrefixConstant) {
		return pathOrURL
	}
	return client.baseURL + pathOrURL
}

func filterPackages(candidatePackages []Package, repositoryFilter string) []Package {
	filtered := make([]Package, 0, len(candidatePackages))
	normalizedRepositoryFilter := strings.ToLower(strings.TrimSpace(repositoryFilter))

	for _, candidatePackage := range candidatePackages {
		if strings.HasPrefix(candidatePackage.Name, softDeletedPackagePrefixConstant) {
			continue
		}
		if len(normalizedRepositoryFilter) > 0 && strings.ToLower(candidatePackage.Repository.Name) != normalizedRepositoryFilter {
			continue
		}
		filtered = append(filtered, candidatePackage)
	}

	return filtered
}

func parseNextLink(linkHeaderValue string) string {
	for _, linkSegment := range strings.Split(linkHeaderValue, linkSegmentSeparatorConstant) {
		linkParts := strings.Split(strings.TrimSpace(linkSegment), linkPartSeparatorConstant)
		if len(linkParts) < 2 {
			continue
		}
		if strings.TrimSpace(linkParts[1]) != linkNextRelationConstant {
			continue
		}
		return strings.Trim(strings.TrimSpace(linkParts[0]), linkURLTrimCutsetConstant)
	}
	return ""
}

func appendQuery(requestURL string, query url.Values) string {
	parsedURL, parseError := url.Parse(requestURL)
	if parseError != nil {
		return requestURL
	}

	mergedQuery := parsedURL.Query()
	for queryKey, queryValues := range query {
		mergedQuery[queryKey] = queryValues
	}
	parsedURL.RawQuery = mergedQuery.Encode()

	return parsedURL.String()
}

func statusIndicatesSuccess(statusCode int) bool {
	return statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices
}
